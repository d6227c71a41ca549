package timeline

// View - один экземпляр отображения на одной поверхности.
// Флаг "уже подогнали масштаб" живёт здесь, а не в глобальном состоянии.
type View struct {
	surface    Surface
	fittedOnce bool
}

func NewView(surface Surface) *View {
	return &View{surface: surface}
}

// Show отдаёт проекцию поверхности, восстанавливает выделение
// и один раз за жизнь view подгоняет масштаб, когда появились задачи
func (v *View) Show(p Projection, selectedTaskID string, editable bool) {
	v.surface.Render(p.Items, p.Groups, DefaultOptions(editable))

	if selectedTaskID != "" {
		v.surface.SetSelection([]string{TaskItemID(selectedTaskID)})
	}

	if !v.fittedOnce && hasTaskItems(p.Items) {
		v.surface.Fit()
		v.fittedOnce = true
	}
}

func (v *View) FittedOnce() bool {
	return v.fittedOnce
}

func hasTaskItems(items []Item) bool {
	for _, it := range items {
		if it.Kind == KindTask {
			return true
		}
	}
	return false
}
