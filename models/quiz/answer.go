package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// AnswerKind tags the shape of a submitted answer.
type AnswerKind int

const (
	AnswerText   AnswerKind = iota + 1 // free text (fill_blank)
	AnswerSingle                       // one option id (single_mcq, yes_no)
	AnswerMulti                        // a set of option ids (multiple_mcq)
)

// Answer is the tagged union behind the polymorphic answer shape on the
// wire: a JSON string, a single option id, or an array of option ids.
// The shape is validated once here, at decode time.
type Answer struct {
	Kind      AnswerKind
	Text      string
	OptionIDs []uint
}

// AnswerMap maps question ids to their submitted answers.
type AnswerMap map[uint]Answer

var errAnswerShape = errors.New("answer must be a string, an option id or an array of option ids")

// TextAnswer builds a free-text answer.
func TextAnswer(text string) Answer {
	return Answer{Kind: AnswerText, Text: text}
}

// SingleAnswer builds a single-option answer.
func SingleAnswer(optionID uint) Answer {
	return Answer{Kind: AnswerSingle, OptionIDs: []uint{optionID}}
}

// MultiAnswer builds a multi-option answer.
func MultiAnswer(optionIDs []uint) Answer {
	return Answer{Kind: AnswerMulti, OptionIDs: optionIDs}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errAnswerShape
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return errAnswerShape
		}
		*a = TextAnswer(text)
		return nil
	case '[':
		var ids []uint
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("%w: array entries must be option ids", errAnswerShape)
		}
		*a = MultiAnswer(ids)
		return nil
	default:
		var id uint
		if err := json.Unmarshal(data, &id); err != nil {
			return errAnswerShape
		}
		*a = SingleAnswer(id)
		return nil
	}
}

// MarshalJSON writes the answer back in its original wire shape so saved
// answers round-trip to the client unchanged.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerText:
		return json.Marshal(a.Text)
	case AnswerSingle:
		if len(a.OptionIDs) != 1 {
			return nil, fmt.Errorf("single answer with %d option ids", len(a.OptionIDs))
		}
		return json.Marshal(a.OptionIDs[0])
	case AnswerMulti:
		return json.Marshal(a.OptionIDs)
	}
	return nil, errors.New("answer has no kind set")
}

// Answered reports whether the answer carries any content.
func (a Answer) Answered() bool {
	switch a.Kind {
	case AnswerText:
		return a.Text != ""
	case AnswerSingle, AnswerMulti:
		return len(a.OptionIDs) > 0
	}
	return false
}

// ReconstructAnswer rebuilds the wire-shape answer from persisted response
// state: free text when present, a single id when exactly one option is
// selected, otherwise the id list.
func ReconstructAnswer(textResponse string, optionIDs []uint) Answer {
	if textResponse != "" {
		return TextAnswer(textResponse)
	}
	if len(optionIDs) == 1 {
		return SingleAnswer(optionIDs[0])
	}
	return MultiAnswer(optionIDs)
}
