package quiz

import (
	"time"

	"gorm.io/gorm"
)

// Test session lifecycle states. A session moves in_progress -> completed
// exactly once, on submit.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

// TestSession is one user's timed attempt at one test. At most one
// in_progress session exists per (test, user) pair.
type TestSession struct {
	gorm.Model
	TestID               uint       `json:"test_id" gorm:"index;not null"`
	UserID               uint       `json:"user_id" gorm:"index;not null"`
	StartTime            time.Time  `json:"start_time" gorm:"not null"`
	EndTime              *time.Time `json:"end_time"`
	Status               string     `json:"status" gorm:"size:20;default:'in_progress';index"`
	Score                *float64   `json:"score"`
	Passed               *bool      `json:"passed"`
	TimeSpent            int        `json:"time_spent"` // seconds
	RemainingTime        int        `json:"remaining_time"`
	CurrentQuestionIndex int        `json:"current_question_index" gorm:"default:0"`

	Responses []QuestionResponse `json:"-" gorm:"foreignKey:SessionID"`
}

// QuestionResponse records the answer given to one question within a
// session. IsCorrect stays nil until graded; fill_blank responses keep it
// nil pending manual grading.
type QuestionResponse struct {
	gorm.Model
	SessionID    uint   `json:"session_id" gorm:"index;not null"`
	QuestionID   uint   `json:"question_id" gorm:"index;not null"`
	TextResponse string `json:"text_response"`
	IsCorrect    *bool  `json:"is_correct"`

	SelectedOptions []ResponseOption `json:"-" gorm:"foreignKey:ResponseID"`
}

// ResponseOption records one option picked for a choice-type response.
// The set is fully replaced on every autosave of that question.
type ResponseOption struct {
	gorm.Model
	ResponseID uint `json:"response_id" gorm:"index;not null"`
	OptionID   uint `json:"option_id" gorm:"index;not null"`
}
