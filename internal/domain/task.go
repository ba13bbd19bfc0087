package domain

// Task is the persisted to-do item.
// Title is nil when no title was set, which is distinct from an empty title.
type Task struct {
	ID    int64
	Title *string
	Done  bool
}

// NewTask returns a task ready to be stored: no id yet, not done.
func NewTask(title *string) Task {
	return Task{Title: title, Done: false}
}
