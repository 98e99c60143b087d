package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/services"
	"github.com/gravadigital/smartpolls/internal/storage"
	"github.com/gravadigital/smartpolls/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(store storage.PollStore) *gin.Engine {
	h := NewPollHandler(services.NewPollService(store, validation.NewPollValidation(validation.DefaultMaxOptions)))

	r := gin.New()
	r.GET("/api/polls", h.ListPolls)
	r.POST("/api/polls", h.CreatePoll)
	r.GET("/api/polls/:id", h.GetPoll)
	r.DELETE("/api/polls/:id", h.DeletePoll)
	r.GET("/api/polls/:id/results", h.GetResults)
	r.POST("/api/polls/:id/vote", h.Vote)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestCreatePoll(t *testing.T) {
	r := newRouter(storage.NewMemoryStore())

	w := do(t, r, http.MethodPost, "/api/polls", CreatePollRequest{
		Question: "  Lunch? ",
		Options:  []string{"Pizza", " Sushi "},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody[poll.Poll](t, w)
	assert.Equal(t, "Lunch?", created.Question)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
	require.Len(t, created.Options, 2)
	assert.Equal(t, "Sushi", created.Options[1].Text)
}

func TestCreatePollValidation(t *testing.T) {
	r := newRouter(storage.NewMemoryStore())

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing question", CreatePollRequest{Options: []string{"a", "b"}}, "question is required"},
		{"single option", CreatePollRequest{Question: "Q", Options: []string{"a"}}, "at least 2 options are required"},
		{"duplicate", CreatePollRequest{Question: "Q", Options: []string{"a", "A"}}, "option 2 duplicates option 1"},
		{"not json", "nope", "Invalid request payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/polls", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeBody[map[string]string](t, w)["message"])
		})
	}
}

func TestGetPollNotFound(t *testing.T) {
	r := newRouter(storage.NewMemoryStore())

	for _, path := range []string{"/api/polls/missing", "/api/polls/missing/results"} {
		w := do(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Poll not found", decodeBody[map[string]string](t, w)["message"])
	}

	w := do(t, r, http.MethodDelete, "/api/polls/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPollsEmpty(t *testing.T) {
	r := newRouter(storage.NewMemoryStore())

	w := do(t, r, http.MethodGet, "/api/polls", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestVoteFlow(t *testing.T) {
	store := storage.NewMemoryStore()
	r := newRouter(store)

	p, err := store.CreatePoll(context.Background(), storage.NewPoll{Question: "Q", Options: []string{"A", "B"}})
	require.NoError(t, err)

	votePath := "/api/polls/" + p.ID + "/vote"

	tests := []struct {
		name   string
		path   string
		body   VoteRequest
		wantOK bool
		want   string
	}{
		{"accepted", votePath, VoteRequest{OptionID: p.Options[0].ID, VoterID: "v1"}, true, "Vote recorded"},
		{"second vote", votePath, VoteRequest{OptionID: p.Options[1].ID, VoterID: "v1"}, false, "ALREADY_VOTED"},
		{"unknown option", votePath, VoteRequest{OptionID: "nope", VoterID: "v2"}, false, "INVALID_OPTION"},
		{"unknown poll", "/api/polls/missing/vote", VoteRequest{OptionID: "x", VoterID: "v2"}, false, "POLL_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code)

			got := decodeBody[struct {
				OK      bool   `json:"ok"`
				Message string `json:"message"`
			}](t, w)
			assert.Equal(t, tt.wantOK, got.OK)
			assert.Equal(t, tt.want, got.Message)
		})
	}

	w := do(t, r, http.MethodGet, "/api/polls/"+p.ID+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody[ResultsResponse](t, w)
	assert.Equal(t, p.ID, results.PollID)
	assert.Equal(t, map[string]int{p.Options[0].ID: 1}, results.Votes)
}

func TestVoteRequiresVoterID(t *testing.T) {
	r := newRouter(storage.NewMemoryStore())

	w := do(t, r, http.MethodPost, "/api/polls/x/vote", VoteRequest{OptionID: "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePoll(t *testing.T) {
	store := storage.NewMemoryStore()
	r := newRouter(store)

	p, err := store.CreatePoll(context.Background(), storage.NewPoll{Question: "Q", Options: []string{"A", "B"}})
	require.NoError(t, err)

	w := do(t, r, http.MethodDelete, "/api/polls/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/polls/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingStore struct {
	storage.PollStore
}

func (failingStore) ListPolls(context.Context) ([]*poll.Poll, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) RecordVote(context.Context, string, string, string) error {
	return errors.New("disk on fire")
}

func TestStoreFailures(t *testing.T) {
	r := newRouter(failingStore{})

	w := do(t, r, http.MethodGet, "/api/polls", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to list polls", decodeBody[map[string]string](t, w)["message"])

	w = do(t, r, http.MethodPost, "/api/polls/x/vote", VoteRequest{OptionID: "a", VoterID: "v"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
