package api_test

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmoreira/flashdeck/internal/api"
	apperrors "github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/models"
	"github.com/dmoreira/flashdeck/internal/testutil/mocks"
)

type serverMocks struct {
	decks   *mocks.MockDeckService
	cards   *mocks.MockCardService
	imports *mocks.MockImportService
	stats   *mocks.MockStatsService
}

func newTestServer() (*api.Server, *serverMocks) {
	m := &serverMocks{
		decks:   &mocks.MockDeckService{},
		cards:   &mocks.MockCardService{},
		imports: &mocks.MockImportService{},
		stats:   &mocks.MockStatsService{},
	}
	return api.NewServer(m.decks, m.cards, m.imports, m.stats), m
}

func doRequest(t *testing.T, srv *api.Server, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	return errObj["code"].(string)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/api/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestListDecks(t *testing.T) {
	srv, m := newTestServer()
	m.decks.On("ListDecks", mock.Anything).Return([]models.DeckWithStats{
		{Deck: models.Deck{ID: 1, Name: "Spanish"}, Stats: models.DeckStats{Total: 3, Due: 2}},
	}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/decks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	decks := body["decks"].([]any)
	require.Len(t, decks, 1)
	first := decks[0].(map[string]any)
	assert.Equal(t, "Spanish", first["name"])
	assert.Equal(t, float64(2), first["stats"].(map[string]any)["due"])
	m.decks.AssertExpectations(t)
}

func TestGetDeck_NotFound(t *testing.T) {
	srv, m := newTestServer()
	m.decks.On("GetDeck", mock.Anything, int64(99)).
		Return(nil, apperrors.NewNotFoundError("deck", int64(99)))

	rec := doRequest(t, srv, http.MethodGet, "/api/decks/99", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.ErrCodeNotFound, errorCode(t, rec))
}

func TestGetDeck_BadID(t *testing.T) {
	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/api/decks/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrCodeBadRequest, errorCode(t, rec))
}

func TestDeleteDeck(t *testing.T) {
	srv, m := newTestServer()
	m.decks.On("DeleteDeck", mock.Anything, int64(7)).Return(nil)

	rec := doRequest(t, srv, http.MethodDelete, "/api/decks/7", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decodeBody(t, rec)["deleted"])
	m.decks.AssertExpectations(t)
}

func TestDueCards_LimitPassedThrough(t *testing.T) {
	srv, m := newTestServer()
	m.decks.On("DueCards", mock.Anything, int64(1), 5).Return([]models.Card{}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/decks/1/due-cards?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["cards"], "empty list, not null")
	m.decks.AssertExpectations(t)
}

func TestDueCards_BadLimit(t *testing.T) {
	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/api/decks/1/due-cards?limit=-2", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewCard(t *testing.T) {
	srv, m := newTestServer()
	due := time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC)
	m.cards.On("ReviewCard", mock.Anything, int64(3), fsrs.Good).Return(
		&models.Card{ID: 3, Stage: fsrs.StageReview, DueAt: due},
		&models.Review{ID: 10, CardID: 3, Grade: fsrs.Good},
		nil,
	)

	body := bytes.NewBufferString(`{"grade":3}`)
	rec := doRequest(t, srv, http.MethodPost, "/api/cards/3/review", body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, "review", out["card"].(map[string]any)["stage"])
	assert.Equal(t, float64(10), out["review"].(map[string]any)["id"])
	m.cards.AssertExpectations(t)
}

func TestReviewCard_GradeOutOfRange(t *testing.T) {
	srv, m := newTestServer()

	for _, grade := range []int{0, 5, -1} {
		body := bytes.NewBufferString(fmt.Sprintf(`{"grade":%d}`, grade))
		rec := doRequest(t, srv, http.MethodPost, "/api/cards/3/review", body, "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "grade %d", grade)
		assert.Equal(t, apperrors.ErrCodeInvalidGrade, errorCode(t, rec), "grade %d", grade)
	}
	// The service is never reached for grades the validator rejects.
	m.cards.AssertNotCalled(t, "ReviewCard", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewCard_MalformedBody(t *testing.T) {
	srv, _ := newTestServer()
	body := bytes.NewBufferString(`{"grade":`)
	rec := doRequest(t, srv, http.MethodPost, "/api/cards/3/review", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrCodeBadRequest, errorCode(t, rec))
}

func TestCardReviews(t *testing.T) {
	srv, m := newTestServer()
	m.cards.On("CardReviews", mock.Anything, int64(3)).Return([]models.Review{
		{ID: 1, CardID: 3, Grade: fsrs.Again},
	}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/cards/3/reviews", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	reviews := decodeBody(t, rec)["reviews"].([]any)
	require.Len(t, reviews, 1)
}

func TestStats(t *testing.T) {
	srv, m := newTestServer()
	m.stats.On("ReviewStats", mock.Anything).Return(&models.ReviewStats{
		TotalReviews: 12,
		ReviewsToday: 4,
		ByGrade:      map[string]int{"good": 8},
	}, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(12), body["total_reviews"])
	assert.Equal(t, float64(8), body["by_grade"].(map[string]any)["good"])
}

func multipartUpload(t *testing.T, fieldName, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	srv, m := newTestServer()
	m.imports.On("ImportArchive", mock.Anything, "spanish.apkg", mock.Anything).
		Return(&models.Deck{ID: 5, Name: "spanish"}, nil)

	body, contentType := multipartUpload(t, "file", "spanish.apkg", "zip bytes")
	rec := doRequest(t, srv, http.MethodPost, "/api/upload", body, contentType)

	require.Equal(t, http.StatusAccepted, rec.Code)
	out := decodeBody(t, rec)
	assert.Equal(t, "import queued", out["message"])
	assert.Equal(t, float64(5), out["deck"].(map[string]any)["id"])
	m.imports.AssertExpectations(t)
}

func TestUpload_MissingFileField(t *testing.T) {
	srv, _ := newTestServer()
	body, contentType := multipartUpload(t, "wrong", "spanish.apkg", "zip bytes")
	rec := doRequest(t, srv, http.MethodPost, "/api/upload", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrCodeValidation, errorCode(t, rec))
}

func TestUpload_RateLimited(t *testing.T) {
	srv, m := newTestServer()
	m.imports.On("ImportArchive", mock.Anything, mock.Anything, mock.Anything).
		Return(&models.Deck{ID: 1}, nil)

	var limited bool
	for i := 0; i < 10; i++ {
		body, contentType := multipartUpload(t, "file", "a.apkg", "x")
		rec := doRequest(t, srv, http.MethodPost, "/api/upload", body, contentType)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
			break
		}
	}
	assert.True(t, limited, "burst of uploads should eventually hit the limiter")
}

func TestUpload_QueueFull(t *testing.T) {
	srv, m := newTestServer()
	m.imports.On("ImportArchive", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewUnavailableError("import queue is full, try again later"))

	body, contentType := multipartUpload(t, "file", "a.apkg", "x")
	rec := doRequest(t, srv, http.MethodPost, "/api/upload", body, contentType)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.ErrCodeUnavailable, errorCode(t, rec))
}

func TestPanicsAreRecovered(t *testing.T) {
	srv, m := newTestServer()
	m.stats.On("ReviewStats", mock.Anything).Run(func(args mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, errorCode(t, rec))
}

func TestUnknownHandlerErrorsBecomeInternal(t *testing.T) {
	srv, m := newTestServer()
	m.stats.On("ReviewStats", mock.Anything).Return(nil, stderrors.New("disk on fire"))

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.ErrCodeInternal, errorCode(t, rec))
}
