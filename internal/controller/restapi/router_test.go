package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/restapi/v1/response"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/repotest"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/submission"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	app  *fiber.App
	subs *submission.SubmissionUseCase
}

func newFixture(t *testing.T, store Pinger) *fixture {
	t.Helper()

	s := repotest.New()
	s.AddUser("alice", entity.Premium)
	require.NoError(t, s.Sessions.Create(context.Background(), &entity.Session{ID: "s-alice", Username: "alice"}))

	reg := prometheus.NewRegistry()
	f := &fixture{
		app:  fiber.New(),
		subs: submission.New(s.Sessions, s.Submissions, s, metrics.New(reg)),
	}
	NewRouter(f.app, reg, store, f.subs, logger.Nop())

	return f
}

func (f *fixture) get(t *testing.T, path string) (int, []byte, http.Header) {
	t.Helper()

	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body, resp.Header
}

func TestGetSubmissionLifecycle(t *testing.T) {
	f := newFixture(t, pinger{})
	ctx := context.Background()

	sub, _, err := f.subs.Open(ctx, "s-alice")
	require.NoError(t, err)
	path := "/v1/sessions/s-alice/submissions/" + sub.ID

	code, body, header := f.get(t, path)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "2", header.Get("Retry-After"))

	var got response.Submission
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "in_progress", got.State)

	require.NoError(t, f.subs.MarkDetected(ctx, sub.ID, "猫"))
	require.NoError(t, f.subs.MarkCompleted(ctx, sub.ID, entity.Translation{Text: "cat", From: "zh-CN", To: "en"}))

	code, body, _ = f.get(t, path)
	assert.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "completed", got.State)
	assert.Equal(t, "cat", got.TranslatedText)
	assert.Equal(t, "zh-CN", got.TranslatedFrom)
	assert.Equal(t, "en", got.TranslatedTo)
}

func TestGetSubmissionFailed(t *testing.T) {
	f := newFixture(t, pinger{})
	ctx := context.Background()

	sub, _, err := f.subs.Open(ctx, "s-alice")
	require.NoError(t, err)
	require.NoError(t, f.subs.MarkFailed(ctx, sub.ID, "CNTextOCR module: no text detected"))

	code, body, _ := f.get(t, "/v1/sessions/s-alice/submissions/"+sub.ID)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	var got response.Submission
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "error", got.State)
	assert.Equal(t, "CNTextOCR module: no text detected", got.Error)
}

func TestGetSubmissionNotFound(t *testing.T) {
	f := newFixture(t, pinger{})

	code, _, _ := f.get(t, "/v1/sessions/nope/submissions/sub-1")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = f.get(t, "/v1/sessions/s-alice/submissions/sub-404")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = f.get(t, "/v1/sessions/s-alice/submissions/"+strings.Repeat("x", 65))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthz(t *testing.T) {
	code, _, _ := newFixture(t, pinger{}).get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = newFixture(t, pinger{err: errors.New("connection refused")}).get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, pinger{})
	_, _, err := f.subs.Open(context.Background(), "s-alice")
	require.NoError(t, err)

	code, body, _ := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "submission_transitions_total")
}
