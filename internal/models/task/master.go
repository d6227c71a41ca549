package task

import "sort"

type Role string

const RoleAdmin Role = "admin"
const RoleEditor Role = "editor"
const RoleViewer Role = "viewer"

// CanEdit - viewer может только смотреть и выделять
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleViewer
}

type MasterChannel struct {
	Channel   string `json:"channel" yaml:"channel"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
}

type MasterTaskType struct {
	TaskType  string `json:"task_type" yaml:"task_type"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
}

type MasterStatus struct {
	Status    string `json:"status" yaml:"status"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
	Color     string `json:"color" yaml:"color"`
}

type MasterData struct {
	Channels  []MasterChannel  `json:"channels" yaml:"channels"`
	TaskTypes []MasterTaskType `json:"taskTypes" yaml:"task_types"`
	Statuses  []MasterStatus   `json:"statuses" yaml:"statuses"`
}

// Bootstrap - ответ bootstrap.get
type Bootstrap struct {
	Role    Role       `json:"role"`
	Email   string     `json:"email"`
	Masters MasterData `json:"masters"`
}

// ActiveChannels - активные каналы в порядке sort_order
func (m MasterData) ActiveChannels() []string {
	active := []MasterChannel{}
	for _, c := range m.Channels {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })

	res := make([]string, 0, len(active))
	for _, c := range active {
		res = append(res, c.Channel)
	}
	return res
}

func (m MasterData) ActiveTaskTypes() []string {
	active := []MasterTaskType{}
	for _, t := range m.TaskTypes {
		if t.IsActive {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })

	res := make([]string, 0, len(active))
	for _, t := range active {
		res = append(res, t.TaskType)
	}
	return res
}

func (m MasterData) ActiveStatuses() []string {
	active := []MasterStatus{}
	for _, s := range m.Statuses {
		if s.IsActive {
			active = append(active, s)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })

	res := make([]string, 0, len(active))
	for _, s := range active {
		res = append(res, s.Status)
	}
	return res
}

// StatusColors - цвет каждого статуса, включая неактивные
func (m MasterData) StatusColors() map[string]string {
	res := make(map[string]string, len(m.Statuses))
	for _, s := range m.Statuses {
		res[s.Status] = s.Color
	}
	return res
}

func (m MasterData) HasChannel(channel string) bool {
	for _, c := range m.Channels {
		if c.Channel == channel && c.IsActive {
			return true
		}
	}
	return false
}

func (m MasterData) HasTaskType(taskType string) bool {
	for _, t := range m.TaskTypes {
		if t.TaskType == taskType && t.IsActive {
			return true
		}
	}
	return false
}

func (m MasterData) HasStatus(status string) bool {
	for _, s := range m.Statuses {
		if s.Status == status && s.IsActive {
			return true
		}
	}
	return false
}
