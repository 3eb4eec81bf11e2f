package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Attempt status constants. in_progress is the only non-terminal state.
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
	AttemptStatusTimedOut   = "timed_out"
	AttemptStatusAbandoned  = "abandoned"
)

// UintArray is a custom type for JSONB columns holding id lists
type UintArray []uint

// Scan implements sql.Scanner for UintArray.
// Used by GORM to read JSONB data from the database.
func (a *UintArray) Scan(value interface{}) error {
	if value == nil {
		*a = UintArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = UintArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer for UintArray.
// Used by GORM to write UintArray as JSONB.
func (a UintArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil // empty JSON array instead of null
	}
	return json.Marshal(a)
}

// Contains reports whether id is present in the array
func (a UintArray) Contains(id uint) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// Attempt is one student's run through a quiz, from start to a terminal
// state. The question order is frozen at start; score fields are written
// exactly once, at grading time, and never change afterwards.
type Attempt struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	QuizID        uint       `gorm:"not null;index" json:"quiz_id"`
	StudentID     uint       `gorm:"not null;index" json:"student_id"`
	Status        string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	QuestionOrder UintArray  `gorm:"type:jsonb;not null" json:"question_order"`
	TimeLimitSec  int        `gorm:"not null;default:0" json:"time_limit_sec"` // snapshot, 0 = unlimited
	TimeSpentSec  int        `gorm:"not null;default:0" json:"time_spent_sec"`
	Score         int        `gorm:"not null;default:0" json:"score"`
	TotalPoints   int        `gorm:"not null;default:0" json:"total_points"`
	Percentage    int        `gorm:"not null;default:0" json:"percentage"`
	Passed        bool       `gorm:"not null;default:false" json:"passed"`
	PendingManual bool       `gorm:"not null;default:false" json:"pending_manual"`
	Answers       []AttemptAnswer `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName defines the GORM table name
func (Attempt) TableName() string {
	return "attempts"
}

// IsActive reports whether the attempt still accepts answers
func (a *Attempt) IsActive() bool {
	return a.Status == AttemptStatusInProgress
}

// IsTerminal reports whether the attempt reached a final state
func (a *Attempt) IsTerminal() bool {
	switch a.Status {
	case AttemptStatusCompleted, AttemptStatusTimedOut, AttemptStatusAbandoned:
		return true
	}
	return false
}

// HasTimeLimit reports whether the attempt can expire
func (a *Attempt) HasTimeLimit() bool {
	return a.TimeLimitSec > 0
}

// Deadline returns the wall-clock moment the attempt expires.
// Meaningless when HasTimeLimit is false.
func (a *Attempt) Deadline() time.Time {
	return a.StartedAt.Add(time.Duration(a.TimeLimitSec) * time.Second)
}

// Expired reports whether the time limit has elapsed at the given moment.
// Expiry is derived from started_at, never from a server-side timer.
func (a *Attempt) Expired(now time.Time) bool {
	if !a.HasTimeLimit() {
		return false
	}
	return !now.Before(a.Deadline())
}

// RemainingSeconds returns how many whole seconds are left at the given
// moment, clamped at zero. Returns 0 for attempts without a time limit;
// callers distinguish via HasTimeLimit.
func (a *Attempt) RemainingSeconds(now time.Time) int {
	if !a.HasTimeLimit() {
		return 0
	}
	remaining := a.Deadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
