package task

// TaskOption - функция частичного обновления черновика
type TaskOption func(*TaskDraft)

func WithStatus(status string) TaskOption {
	return func(d *TaskDraft) {
		d.Status = status
	}
}

func WithChannel(channel string) TaskOption {
	return func(d *TaskDraft) {
		d.Channel = channel
	}
}

func WithAssignee(assignee string) TaskOption {
	return func(d *TaskDraft) {
		d.Assignee = assignee
	}
}

func WithScriptNo(scriptNo string) TaskOption {
	return func(d *TaskDraft) {
		d.ScriptNo = scriptNo
	}
}

func WithTaskType(taskType string) TaskOption {
	return func(d *TaskDraft) {
		d.TaskType = taskType
	}
}

func WithTaskName(name string) TaskOption {
	return func(d *TaskDraft) {
		d.TaskName = name
	}
}

func WithDates(startDate, endDate string) TaskOption {
	return func(d *TaskDraft) {
		d.StartDate = startDate
		d.EndDate = endDate
	}
}

// Options превращает патч в набор опций, nil поля пропускаются
func (p TaskPatch) Options() []TaskOption {
	opts := []TaskOption{}
	if p.Status != nil {
		opts = append(opts, WithStatus(*p.Status))
	}
	if p.Channel != nil {
		opts = append(opts, WithChannel(*p.Channel))
	}
	if p.Assignee != nil {
		opts = append(opts, WithAssignee(*p.Assignee))
	}
	if p.ScriptNo != nil {
		opts = append(opts, WithScriptNo(*p.ScriptNo))
	}
	if p.TaskType != nil {
		opts = append(opts, WithTaskType(*p.TaskType))
	}
	if p.TaskName != nil {
		opts = append(opts, WithTaskName(*p.TaskName))
	}
	if p.StartDate != nil || p.EndDate != nil {
		opts = append(opts, func(d *TaskDraft) {
			if p.StartDate != nil {
				d.StartDate = *p.StartDate
			}
			if p.EndDate != nil {
				d.EndDate = *p.EndDate
			}
		})
	}
	return opts
}

// Apply применяет опции к копии черновика
func (d TaskDraft) Apply(opts ...TaskOption) TaskDraft {
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}
