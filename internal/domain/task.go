package domain

import (
	"time"
)

type Task struct {
	ID        int64
	Title     string
	Amount    int64 // minor units
	Signature string
	Done      bool
	OwnerID   int64
	CreatedAt time.Time
	Options   []Option
}

type Option struct {
	ID       int64
	ImageURL string
	TaskID   int64
}

// TaskSummary is what a worker sees when asked to answer a task.
type TaskSummary struct {
	ID      int64
	Title   string
	Amount  int64
	Options []Option
}

// HasOption reports whether optionID belongs to the task.
func (t *TaskSummary) HasOption(optionID int64) bool {
	for _, o := range t.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// OptionResult is one option of a task with the number of submissions that picked it.
type OptionResult struct {
	OptionID int64
	ImageURL string
	Count    int
}

type TaskResult struct {
	ID      int64
	Title   string
	Done    bool
	Options []OptionResult
}
