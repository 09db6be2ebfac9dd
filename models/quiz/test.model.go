package quiz

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionType enumerates the supported question formats
type QuestionType string

const (
	SingleMCQ   QuestionType = "single_mcq"
	MultipleMCQ QuestionType = "multiple_mcq"
	FillBlank   QuestionType = "fill_blank"
	YesNo       QuestionType = "yes_no"
)

// Valid reports whether t is one of the known question types
func (t QuestionType) Valid() bool {
	switch t {
	case SingleMCQ, MultipleMCQ, FillBlank, YesNo:
		return true
	}
	return false
}

// Choice reports whether answers to this type are option selections
func (t QuestionType) Choice() bool {
	return t == SingleMCQ || t == MultipleMCQ || t == YesNo
}

// Test represents a timed test definition
type Test struct {
	gorm.Model
	Title           string  `json:"title" gorm:"size:200;not null"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	PassingScore    float64 `json:"passing_score" gorm:"default:70"`
	IsActive        bool    `json:"is_active" gorm:"default:true"`
	CreatorID       uint    `json:"creator_id" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Question belongs to a test. Questions and their options are immutable
// once the test is created.
type Question struct {
	gorm.Model
	TestID       uint         `json:"test_id" gorm:"index;not null"`
	QuestionText string       `json:"question_text" gorm:"not null"`
	QuestionType QuestionType `json:"question_type" gorm:"size:20;not null"`
	Points       float64      `json:"points" gorm:"default:1"`
	Order        int          `json:"order" gorm:"column:question_order"`
	Explanation  string       `json:"explanation"`

	Options []QuestionOption `json:"options,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// QuestionOption is one selectable option of a question. For fill_blank
// questions a single option holds the accepted text answer.
type QuestionOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"text" gorm:"not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Order      int    `json:"order" gorm:"column:option_order"`
}

// TestGenerationLog keeps the raw generated-question payload for auditing
// what the generative API returned when a test was created.
type TestGenerationLog struct {
	gorm.Model
	TestID       uint           `json:"test_id" gorm:"index;not null"`
	Topic        string         `json:"topic"`
	NumQuestions int            `json:"num_questions"`
	Payload      datatypes.JSON `json:"payload"`
}
