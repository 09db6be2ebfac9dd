package testController_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizapp/config"
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/models/quiz"
	testRoutes "quizapp/routers/testRoutes"
	"quizapp/services/questiongen"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// setupApp wires a fiber app with the real test routes on top of a fresh
// in-memory database.
func setupApp(t *testing.T, gen *questiongen.Client) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:    "test-secret",
		SaltRound: 4,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	if gen == nil {
		gen = questiongen.New("http://127.0.0.1:0", "")
	}

	app := fiber.New()
	testRoutes.SetupTestRoutes(app, gen)
	return app, db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		Password:  "irrelevant",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func authHeader(t *testing.T, user models.User) string {
	t.Helper()
	token, err := middleware.GenerateJWT(user.ID, user.Email, user.FirstName, user.LastName, user.Role, middleware.AccessTokenTTL)
	require.NoError(t, err)
	return "Bearer " + token
}

// seedTest creates a three-question test:
// q1 single_mcq 2pts, q2 fill_blank 1pt, q3 multiple_mcq 3pts.
type seededTest struct {
	Test quiz.Test
	Q1   quiz.Question
	Q2   quiz.Question
	Q3   quiz.Question
	// option ids
	Q1Correct, Q1Wrong             uint
	Q3CorrectA, Q3CorrectB, Q3Wrong uint
}

func seedTest(t *testing.T, db *gorm.DB, creatorID uint) seededTest {
	t.Helper()

	test := quiz.Test{Title: "Biology Basics", DurationMinutes: 30, PassingScore: 70, IsActive: true, CreatorID: creatorID}
	require.NoError(t, db.Create(&test).Error)

	q1 := quiz.Question{TestID: test.ID, QuestionText: "Powerhouse of the cell?", QuestionType: quiz.SingleMCQ, Points: 2, Order: 1}
	q2 := quiz.Question{TestID: test.ID, QuestionText: "Plants make food by ____.", QuestionType: quiz.FillBlank, Points: 1, Order: 2}
	q3 := quiz.Question{TestID: test.ID, QuestionText: "Which are mammals?", QuestionType: quiz.MultipleMCQ, Points: 3, Order: 3}
	require.NoError(t, db.Create(&q1).Error)
	require.NoError(t, db.Create(&q2).Error)
	require.NoError(t, db.Create(&q3).Error)

	o1a := quiz.QuestionOption{QuestionID: q1.ID, OptionText: "Mitochondria", IsCorrect: true, Order: 1}
	o1b := quiz.QuestionOption{QuestionID: q1.ID, OptionText: "Ribosome", Order: 2}
	o2 := quiz.QuestionOption{QuestionID: q2.ID, OptionText: "photosynthesis", IsCorrect: true, Order: 1}
	o3a := quiz.QuestionOption{QuestionID: q3.ID, OptionText: "Whale", IsCorrect: true, Order: 1}
	o3b := quiz.QuestionOption{QuestionID: q3.ID, OptionText: "Bat", IsCorrect: true, Order: 2}
	o3c := quiz.QuestionOption{QuestionID: q3.ID, OptionText: "Shark", Order: 3}
	for _, opt := range []*quiz.QuestionOption{&o1a, &o1b, &o2, &o3a, &o3b, &o3c} {
		require.NoError(t, db.Create(opt).Error)
	}

	return seededTest{
		Test: test, Q1: q1, Q2: q2, Q3: q3,
		Q1Correct: o1a.ID, Q1Wrong: o1b.ID,
		Q3CorrectA: o3a.ID, Q3CorrectB: o3b.ID, Q3Wrong: o3c.ID,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, url, auth string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	return resp.StatusCode, env
}

func TestGetTestQuestionsCreatesSessionLazily(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	url := fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID)

	code, env := doRequest(t, app, http.MethodGet, url, auth, nil)
	require.Equal(t, http.StatusOK, code)

	sessionID := env.Data["session_id"].(float64)
	assert.Greater(t, sessionID, 0.0)
	assert.Equal(t, float64(30*60), env.Data["remaining_time"])
	assert.Len(t, env.Data["questions"], 3)

	// A second fetch resumes the same session instead of opening another.
	code, env2 := doRequest(t, app, http.MethodGet, url, auth, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, sessionID, env2.Data["session_id"].(float64))

	var count int64
	db.Model(&quiz.TestSession{}).
		Where("test_id = ? AND user_id = ? AND status = ?", seeded.Test.ID, user.ID, quiz.SessionInProgress).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetTestQuestionsUnknownTest(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")

	code, _ := doRequest(t, app, http.MethodGet, "/api/tests/9999/questions", authHeader(t, user), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateProgressAutosave(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	// Open a session first.
	_, env := doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)
	sessionID := uint(env.Data["session_id"].(float64))

	progressURL := fmt.Sprintf("/api/tests/%d/progress", seeded.Test.ID)
	code, _ := doRequest(t, app, http.MethodPost, progressURL, auth, fiber.Map{
		"remaining_time":         1500,
		"current_question_index": 1,
		"answers": fiber.Map{
			fmt.Sprint(seeded.Q1.ID): seeded.Q1Wrong,
			fmt.Sprint(seeded.Q2.ID): "photosynthesis",
		},
	})
	require.Equal(t, http.StatusOK, code)

	var session quiz.TestSession
	require.NoError(t, db.First(&session, sessionID).Error)
	assert.Equal(t, 1500, session.RemainingTime)
	assert.Equal(t, 1, session.CurrentQuestionIndex)

	// Re-answering a question replaces its option set, not appends.
	code, _ = doRequest(t, app, http.MethodPost, progressURL, auth, fiber.Map{
		"answers": fiber.Map{fmt.Sprint(seeded.Q1.ID): seeded.Q1Correct},
	})
	require.Equal(t, http.StatusOK, code)

	var response quiz.QuestionResponse
	require.NoError(t, db.Preload("SelectedOptions").
		Where("session_id = ? AND question_id = ?", sessionID, seeded.Q1.ID).
		First(&response).Error)
	require.Len(t, response.SelectedOptions, 1)
	assert.Equal(t, seeded.Q1Correct, response.SelectedOptions[0].OptionID)

	// Saved answers come back on the next questions fetch.
	_, env = doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)
	saved := env.Data["saved_answers"].(map[string]interface{})
	assert.Equal(t, float64(seeded.Q1Correct), saved[fmt.Sprint(seeded.Q1.ID)])
	assert.Equal(t, "photosynthesis", saved[fmt.Sprint(seeded.Q2.ID)])
}

func TestUpdateProgressRejectsForeignOption(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)

	// Option belongs to q3, not q1.
	code, env := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/progress", seeded.Test.ID), auth, fiber.Map{
		"answers": fiber.Map{fmt.Sprint(seeded.Q1.ID): seeded.Q3Wrong},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.False(t, env.Status)

	// Nothing stored: the batch is atomic.
	var count int64
	db.Model(&quiz.QuestionResponse{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdateProgressWithoutSession(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)

	code, env := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/progress", seeded.Test.ID), authHeader(t, user), fiber.Map{
		"remaining_time": 100,
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No active session found!", env.Message)
}

func TestSubmitScoresFromPersistedAnswers(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)

	// q1 correct (2/2), q2 text counts but stays ungraded (0/1),
	// q3 exact correct set (3/3): 5 of 6 points.
	code, env := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/submit", seeded.Test.ID), auth, fiber.Map{
		"answers": fiber.Map{
			fmt.Sprint(seeded.Q1.ID): seeded.Q1Correct,
			fmt.Sprint(seeded.Q2.ID): "photosynthesis",
			fmt.Sprint(seeded.Q3.ID): []uint{seeded.Q3CorrectB, seeded.Q3CorrectA},
		},
		"timeSpent": 900,
	})
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, 6.0, env.Data["total_points"])
	assert.Equal(t, 5.0, env.Data["earned_points"])
	assert.InDelta(t, 83.33, env.Data["score"].(float64), 0.01)
	assert.Equal(t, true, env.Data["passed"])
	assert.Equal(t, float64(900), env.Data["time_spent"])

	sessionID := uint(env.Data["session_id"].(float64))
	var session quiz.TestSession
	require.NoError(t, db.First(&session, sessionID).Error)
	assert.Equal(t, quiz.SessionCompleted, session.Status)
	require.NotNil(t, session.Score)
	assert.InDelta(t, 83.33, *session.Score, 0.01)
	require.NotNil(t, session.Passed)
	assert.True(t, *session.Passed)
	require.NotNil(t, session.EndTime)

	// fill_blank verdict stays nil pending manual grading.
	var q2Response quiz.QuestionResponse
	require.NoError(t, db.Where("session_id = ? AND question_id = ?", sessionID, seeded.Q2.ID).First(&q2Response).Error)
	assert.Nil(t, q2Response.IsCorrect)
}

func TestSubmitIsIdempotent(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)

	submitURL := fmt.Sprintf("/api/tests/%d/submit", seeded.Test.ID)
	body := fiber.Map{
		"answers":   fiber.Map{fmt.Sprint(seeded.Q1.ID): seeded.Q1Correct},
		"timeSpent": 300,
	}

	code, first := doRequest(t, app, http.MethodPost, submitURL, auth, body)
	require.Equal(t, http.StatusOK, code)

	// A second submit returns the stored outcome, even with different answers.
	code, second := doRequest(t, app, http.MethodPost, submitURL, auth, fiber.Map{
		"answers":   fiber.Map{fmt.Sprint(seeded.Q1.ID): seeded.Q1Wrong},
		"timeSpent": 9999,
	})
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, first.Data["session_id"], second.Data["session_id"])
	assert.Equal(t, first.Data["score"], second.Data["score"])
	assert.Equal(t, first.Data["time_spent"], second.Data["time_spent"])

	var count int64
	db.Model(&quiz.TestSession{}).Where("test_id = ? AND user_id = ?", seeded.Test.ID, user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubmitWithoutAnySession(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)

	code, env := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/submit", seeded.Test.ID), authHeader(t, user), fiber.Map{
		"answers": fiber.Map{},
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No active test session found!", env.Message)
}

func TestSessionStatus(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	statusURL := fmt.Sprintf("/api/tests/%d/session/status", seeded.Test.ID)

	code, env := doRequest(t, app, http.MethodGet, statusURL, auth, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "no_active_session", env.Data["status"])

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)

	code, env = doRequest(t, app, http.MethodGet, statusURL, auth, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, quiz.SessionInProgress, env.Data["status"])
	assert.NotEmpty(t, env.Data["start_time"])
}

func TestUpdateSessionTime(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	_, env := doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)
	sessionID := uint(env.Data["session_id"].(float64))

	code, _ := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/session/update-time", seeded.Test.ID), auth, fiber.Map{
		"remaining_time": 42,
	})
	require.Equal(t, http.StatusOK, code)

	var session quiz.TestSession
	require.NoError(t, db.First(&session, sessionID).Error)
	assert.Equal(t, 42, session.RemainingTime)
}

func TestGetTestResults(t *testing.T) {
	app, db := setupApp(t, nil)
	user := createUser(t, db, "alice@example.com", "user")
	seeded := seedTest(t, db, user.ID)
	auth := authHeader(t, user)

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), auth, nil)

	// q1 correct, q2 answered but ungraded, q3 left unanswered.
	_, submitEnv := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/submit", seeded.Test.ID), auth, fiber.Map{
		"answers": fiber.Map{
			fmt.Sprint(seeded.Q1.ID): seeded.Q1Correct,
			fmt.Sprint(seeded.Q2.ID): "chlorophyll",
		},
		"timeSpent": 600,
	})
	sessionID := uint(submitEnv.Data["session_id"].(float64))

	code, env := doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/tests/%d/results/%d", seeded.Test.ID, sessionID), auth, nil)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, float64(3), env.Data["total_questions"])
	assert.Equal(t, float64(1), env.Data["correct_answers"])
	assert.Equal(t, float64(1), env.Data["incorrect_answers"])
	assert.Equal(t, float64(1), env.Data["unanswered"])
	assert.Equal(t, 3.0, env.Data["total_points"])
	assert.Equal(t, 2.0, env.Data["earned_points"])

	// The recomputed percentage matches what submit stored.
	assert.InDelta(t, submitEnv.Data["score"].(float64), env.Data["score_percentage"].(float64), 0.0001)

	questions := env.Data["questions"].([]interface{})
	require.Len(t, questions, 3)

	first := questions[0].(map[string]interface{})
	assert.Equal(t, true, first["is_correct"])
	selectedSeen := false
	for _, raw := range first["options"].([]interface{}) {
		opt := raw.(map[string]interface{})
		if opt["user_selected"].(bool) {
			selectedSeen = true
			assert.Equal(t, float64(seeded.Q1Correct), opt["id"])
		}
	}
	assert.True(t, selectedSeen)
}

func TestGetTestResultsWrongUser(t *testing.T) {
	app, db := setupApp(t, nil)
	owner := createUser(t, db, "alice@example.com", "user")
	other := createUser(t, db, "bob@example.com", "user")
	seeded := seedTest(t, db, owner.ID)
	ownerAuth := authHeader(t, owner)

	doRequest(t, app, http.MethodGet, fmt.Sprintf("/api/tests/%d/questions", seeded.Test.ID), ownerAuth, nil)
	_, submitEnv := doRequest(t, app, http.MethodPost, fmt.Sprintf("/api/tests/%d/submit", seeded.Test.ID), ownerAuth, fiber.Map{
		"answers": fiber.Map{fmt.Sprint(seeded.Q1.ID): seeded.Q1Correct},
	})
	sessionID := uint(submitEnv.Data["session_id"].(float64))

	code, _ := doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/api/tests/%d/results/%d", seeded.Test.ID, sessionID), authHeader(t, other), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoutesRequireAuth(t *testing.T) {
	app, _ := setupApp(t, nil)

	code, _ := func() (int, error) {
		req := httptest.NewRequest(http.MethodGet, "/api/tests/1/questions", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		return resp.StatusCode, nil
	}()
	assert.Equal(t, http.StatusUnauthorized, code)
}
