package testController

import (
	"errors"
	"fmt"
	"quizapp/models/quiz"

	"gorm.io/gorm"
)

// answerValidationError marks an answer payload that references questions or
// options outside the test. Handlers surface it as a 422 instead of rolling
// the whole request into a generic failure.
type answerValidationError struct {
	message string
}

func (e *answerValidationError) Error() string {
	return e.message
}

func validationErrorf(format string, args ...interface{}) error {
	return &answerValidationError{message: fmt.Sprintf(format, args...)}
}

// saveAnswers upserts a batch of answers for a session inside tx. Each
// question's saved state is fully overwritten: the response row is found or
// created, its selected options are deleted, then the new selection or text
// is written. Question and option ownership is verified before anything is
// written, so a mismatched payload fails the whole transaction.
func saveAnswers(tx *gorm.DB, session *quiz.TestSession, answers quiz.AnswerMap) (map[uint]*quiz.QuestionResponse, error) {
	if len(answers) == 0 {
		return map[uint]*quiz.QuestionResponse{}, nil
	}

	var questions []quiz.Question
	if err := tx.Where("test_id = ?", session.TestID).Find(&questions).Error; err != nil {
		return nil, err
	}
	questionsByID := make(map[uint]quiz.Question, len(questions))
	questionIDs := make([]uint, len(questions))
	for i, q := range questions {
		questionsByID[q.ID] = q
		questionIDs[i] = q.ID
	}

	var options []quiz.QuestionOption
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).Find(&options).Error; err != nil {
			return nil, err
		}
	}
	optionOwner := make(map[uint]uint, len(options))
	for _, opt := range options {
		optionOwner[opt.ID] = opt.QuestionID
	}

	for questionID, answer := range answers {
		if _, ok := questionsByID[questionID]; !ok {
			return nil, validationErrorf("question %d does not belong to this test", questionID)
		}
		for _, optionID := range answer.OptionIDs {
			if owner, ok := optionOwner[optionID]; !ok || owner != questionID {
				return nil, validationErrorf("option %d does not belong to question %d", optionID, questionID)
			}
		}
	}

	responses := make(map[uint]*quiz.QuestionResponse, len(answers))
	for questionID, answer := range answers {
		response, err := upsertAnswer(tx, session.ID, questionID, answer)
		if err != nil {
			return nil, err
		}
		responses[questionID] = response
	}
	return responses, nil
}

// upsertAnswer overwrites the saved answer for one question
func upsertAnswer(tx *gorm.DB, sessionID, questionID uint, answer quiz.Answer) (*quiz.QuestionResponse, error) {
	var response quiz.QuestionResponse
	err := tx.Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response = quiz.QuestionResponse{SessionID: sessionID, QuestionID: questionID}
		if err := tx.Create(&response).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	// Full overwrite: clear any prior selection before writing the new one
	if err := tx.Unscoped().
		Where("response_id = ?", response.ID).
		Delete(&quiz.ResponseOption{}).Error; err != nil {
		return nil, err
	}

	switch answer.Kind {
	case quiz.AnswerText:
		response.TextResponse = answer.Text
	default:
		response.TextResponse = ""
		for _, optionID := range answer.OptionIDs {
			selected := quiz.ResponseOption{ResponseID: response.ID, OptionID: optionID}
			if err := tx.Create(&selected).Error; err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Model(&response).
		Update("text_response", response.TextResponse).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

// loadSavedAnswers reconstructs the wire-shape answer map from the
// persisted responses of a session.
func loadSavedAnswers(db *gorm.DB, sessionID uint) (quiz.AnswerMap, error) {
	var responses []quiz.QuestionResponse
	if err := db.Preload("SelectedOptions").
		Where("session_id = ?", sessionID).
		Find(&responses).Error; err != nil {
		return nil, err
	}

	answers := make(quiz.AnswerMap, len(responses))
	for _, response := range responses {
		optionIDs := make([]uint, len(response.SelectedOptions))
		for i, selected := range response.SelectedOptions {
			optionIDs[i] = selected.OptionID
		}
		answers[response.QuestionID] = quiz.ReconstructAnswer(response.TextResponse, optionIDs)
	}
	return answers, nil
}
