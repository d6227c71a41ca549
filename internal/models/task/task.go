package task

// Task - снимок задачи, как её отдаёт хранилище.
// Даты start_date/end_date - календарные дни YYYY-MM-DD (UTC+9), диапазон включительный.
type Task struct {
	ID        string `json:"id" db:"id"`
	Version   int    `json:"version" db:"version"`
	Status    string `json:"status" db:"status"`
	Channel   string `json:"channel" db:"channel"`
	Assignee  string `json:"assignee" db:"assignee"`
	ScriptNo  string `json:"script_no" db:"script_no"`
	TaskType  string `json:"task_type" db:"task_type"`
	TaskName  string `json:"task_name" db:"task_name"`
	StartDate string `json:"start_date" db:"start_date"`
	EndDate   string `json:"end_date" db:"end_date"`
	DeletedAt string `json:"deleted_at" db:"deleted_at"`
	CreatedAt string `json:"created_at" db:"created_at"`
	CreatedBy string `json:"created_by" db:"created_by"`
	UpdatedAt string `json:"updated_at" db:"updated_at"`
	UpdatedBy string `json:"updated_by" db:"updated_by"`
}

// TaskDraft - задача без идентичности, версии и аудита
type TaskDraft struct {
	Status    string `json:"status"`
	Channel   string `json:"channel"`
	Assignee  string `json:"assignee"`
	ScriptNo  string `json:"script_no"`
	TaskType  string `json:"task_type"`
	TaskName  string `json:"task_name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// TaskPatch - частичный черновик для tasks.update, nil поля не меняются
type TaskPatch struct {
	Status    *string `json:"status,omitempty"`
	Channel   *string `json:"channel,omitempty"`
	Assignee  *string `json:"assignee,omitempty"`
	ScriptNo  *string `json:"script_no,omitempty"`
	TaskType  *string `json:"task_type,omitempty"`
	TaskName  *string `json:"task_name,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

type ReleaseDate struct {
	Channel     string `json:"channel" db:"channel"`
	ScriptNo    string `json:"script_no" db:"script_no"`
	ReleaseDate string `json:"release_date" db:"release_date"`
	UpdatedAt   string `json:"updated_at" db:"updated_at"`
	UpdatedBy   string `json:"updated_by" db:"updated_by"`
}

func (t *Task) IsDeleted() bool {
	return t.DeletedAt != ""
}

// Draft возвращает редактируемую часть задачи
func (t *Task) Draft() TaskDraft {
	return TaskDraft{
		Status:    t.Status,
		Channel:   t.Channel,
		Assignee:  t.Assignee,
		ScriptNo:  t.ScriptNo,
		TaskType:  t.TaskType,
		TaskName:  t.TaskName,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
	}
}

// ApplyDraft переносит все поля черновика в задачу
func (t *Task) ApplyDraft(d TaskDraft) {
	t.Status = d.Status
	t.Channel = d.Channel
	t.Assignee = d.Assignee
	t.ScriptNo = d.ScriptNo
	t.TaskType = d.TaskType
	t.TaskName = d.TaskName
	t.StartDate = d.StartDate
	t.EndDate = d.EndDate
}

// Fields возвращает пары ключ-значение в порядке формы
func (d TaskDraft) Fields() []DraftField {
	return []DraftField{
		{Key: "status", Value: d.Status},
		{Key: "channel", Value: d.Channel},
		{Key: "assignee", Value: d.Assignee},
		{Key: "script_no", Value: d.ScriptNo},
		{Key: "task_type", Value: d.TaskType},
		{Key: "task_name", Value: d.TaskName},
		{Key: "start_date", Value: d.StartDate},
		{Key: "end_date", Value: d.EndDate},
	}
}

type DraftField struct {
	Key   string
	Value string
}

// IsEmpty - в патче нет ни одного поля
func (p TaskPatch) IsEmpty() bool {
	return p.Status == nil && p.Channel == nil && p.Assignee == nil && p.ScriptNo == nil &&
		p.TaskType == nil && p.TaskName == nil && p.StartDate == nil && p.EndDate == nil
}

// PatchFromDraft делает полный патч из черновика (редактирование через форму)
func PatchFromDraft(d TaskDraft) TaskPatch {
	return TaskPatch{
		Status:    &d.Status,
		Channel:   &d.Channel,
		Assignee:  &d.Assignee,
		ScriptNo:  &d.ScriptNo,
		TaskType:  &d.TaskType,
		TaskName:  &d.TaskName,
		StartDate: &d.StartDate,
		EndDate:   &d.EndDate,
	}
}

// DatePatch - патч перемещения на таймлайне
func DatePatch(startDate, endDate string) TaskPatch {
	return TaskPatch{StartDate: &startDate, EndDate: &endDate}
}
