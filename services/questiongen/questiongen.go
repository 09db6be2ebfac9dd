package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizapp/models/quiz"

	"github.com/go-resty/resty/v2"
)

// Client calls the generative-language API to produce test questions.
// It is constructed once in main and handed to the test-authoring handler;
// nothing in this package keeps global state.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
}

// GeneratedOption is one option of a generated question
type GeneratedOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// GeneratedQuestion is the fixed JSON schema the model is asked to produce
type GeneratedQuestion struct {
	QuestionText string            `json:"question_text"`
	QuestionType string            `json:"question_type"`
	Options      []GeneratedOption `json:"options"`
	Explanation  string            `json:"explanation"`
	Points       float64           `json:"points"`
}

type generatePayload struct {
	Questions []GeneratedQuestion `json:"questions"`
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []promptContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content promptContent `json:"content"`
	} `json:"candidates"`
}

// New builds a question-generation client against the given API base URL
func New(baseURL, apiKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(60 * time.Second),
		apiKey: apiKey,
		model:  "gemini-pro",
	}
}

// Generate asks the model for numQuestions questions about topic. It returns
// the validated questions plus the raw cleaned JSON payload for audit
// logging. Callers must finish this call before opening a DB transaction.
func (c *Client) Generate(ctx context.Context, topic string, numQuestions int) ([]GeneratedQuestion, []byte, error) {
	if numQuestions <= 0 {
		numQuestions = 10
	}

	req := generateContentRequest{
		Contents: []promptContent{
			{Parts: []promptPart{{Text: buildPrompt(topic, numQuestions)}}},
		},
	}

	var result generateContentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", c.model))
	if err != nil {
		return nil, nil, fmt.Errorf("question generation request failed: %w", err)
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("question generation API returned %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, nil, fmt.Errorf("empty response from AI")
	}

	cleaned, err := CleanResponse(result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, nil, err
	}

	var payload generatePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, nil, fmt.Errorf("no questions generated")
	}

	for i := range payload.Questions {
		if err := validateQuestion(&payload.Questions[i]); err != nil {
			return nil, nil, fmt.Errorf("generated question %d: %w", i+1, err)
		}
	}

	return payload.Questions, []byte(cleaned), nil
}

func buildPrompt(topic string, numQuestions int) string {
	return fmt.Sprintf(`
Generate %d questions about %s in the following JSON format:
{
    "questions": [
        {
            "question_text": "Question text here",
            "question_type": "single_mcq|multiple_mcq|fill_blank|yes_no",
            "options": [
                {"text": "Option 1", "is_correct": true},
                {"text": "Option 2", "is_correct": false},
                {"text": "Option 3", "is_correct": false},
                {"text": "Option 4", "is_correct": false}
            ],
            "explanation": "Explanation for the correct answer",
            "points": 1.0
        }
    ]
}

Rules:
1. For single_mcq, only one option should be correct
2. For multiple_mcq, multiple options can be correct
3. For fill_blank, provide one correct answer in the options
4. For yes_no, provide only two options: Yes and No
5. Ensure questions are diverse and cover different aspects of the topic
6. Provide clear explanations for each correct answer
`, numQuestions, topic)
}

// CleanResponse strips markdown fences and surrounding prose so only the
// JSON object remains.
func CleanResponse(responseText string) (string, error) {
	clean := strings.ReplaceAll(responseText, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in AI response")
	}

	return clean[start : end+1], nil
}

// validateQuestion enforces the schema rules on one generated question and
// normalizes defaults.
func validateQuestion(q *GeneratedQuestion) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return fmt.Errorf("missing question_text")
	}

	qType := quiz.QuestionType(q.QuestionType)
	if !qType.Valid() {
		return fmt.Errorf("unknown question_type %q", q.QuestionType)
	}

	if q.Points < 0 {
		return fmt.Errorf("points must not be negative")
	}
	if q.Points == 0 {
		q.Points = 1.0
	}

	correct := 0
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct++
		}
	}

	switch qType {
	case quiz.SingleMCQ:
		if len(q.Options) < 2 {
			return fmt.Errorf("single_mcq needs at least two options")
		}
		if correct != 1 {
			return fmt.Errorf("single_mcq must have exactly one correct option, got %d", correct)
		}
	case quiz.YesNo:
		if len(q.Options) != 2 {
			return fmt.Errorf("yes_no must have exactly two options, got %d", len(q.Options))
		}
		if correct != 1 {
			return fmt.Errorf("yes_no must have exactly one correct option, got %d", correct)
		}
	case quiz.MultipleMCQ:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple_mcq needs at least two options")
		}
		if correct < 1 {
			return fmt.Errorf("multiple_mcq must have at least one correct option")
		}
	case quiz.FillBlank:
		if len(q.Options) < 1 {
			return fmt.Errorf("fill_blank must carry the accepted answer as an option")
		}
	}

	return nil
}
