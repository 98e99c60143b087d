package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/transport"
)

const pollsPath = "/api/polls"

// ErrPollNotFound matches errors returned for polls the server does not know
var ErrPollNotFound = errors.New("poll not found")

// NotFoundError is returned by GetPoll on a 404. Its message is the one
// sent by the server.
type NotFoundError struct {
	PollID string
	Err    error
}

func (e *NotFoundError) Error() string {
	return e.Err.Error()
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrPollNotFound
}

// pollResponse is the poll DTO sent by the backend
type pollResponse struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	CreatedAt string `json:"createdAt"`
	Options   []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"options"`
}

type createPollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// CreatePollInput is the raw form input for a new poll
type CreatePollInput struct {
	Question string
	Options  []string
}

// PollRepository creates, reads and deletes polls on the backend
type PollRepository struct {
	client *transport.Client
	log    *log.Logger
}

// NewPollRepository returns a repository over client
func NewPollRepository(client *transport.Client) *PollRepository {
	return &PollRepository{
		client: client,
		log:    logger.Repository("polls"),
	}
}

// CreatePoll trims the question and options and creates the poll
func (r *PollRepository) CreatePoll(ctx context.Context, input CreatePollInput) (*poll.Poll, error) {
	payload := createPollRequest{
		Question: strings.TrimSpace(input.Question),
		Options:  make([]string, len(input.Options)),
	}
	for i, text := range input.Options {
		payload.Options[i] = strings.TrimSpace(text)
	}

	res, err := transport.Post[createPollRequest, pollResponse](ctx, r.client, pollsPath, payload)
	if err != nil {
		r.log.Error("Failed to create poll", "error", err)
		return nil, err
	}
	if res == nil {
		return nil, emptyResponse("create poll")
	}

	p := mapPollResponse(res)
	r.log.Info("Poll created", "poll_id", p.ID, "options", len(p.Options))
	return p, nil
}

// GetPoll fetches a single poll
func (r *PollRepository) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	res, err := transport.Get[pollResponse](ctx, r.client, pollPath(pollID))
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			r.log.Warn("Poll not found", "poll_id", pollID)
			return nil, &NotFoundError{PollID: pollID, Err: err}
		}
		return nil, err
	}
	if res == nil {
		return nil, emptyResponse("get poll")
	}
	return mapPollResponse(res), nil
}

// ListPolls returns all polls, newest first. createdAt values are ISO-8601
// strings, which sort chronologically when compared as strings.
func (r *PollRepository) ListPolls(ctx context.Context) ([]*poll.Poll, error) {
	res, err := transport.Get[[]pollResponse](ctx, r.client, pollsPath)
	if err != nil {
		return nil, err
	}

	var items []pollResponse
	if res != nil {
		items = *res
	}

	polls := make([]*poll.Poll, 0, len(items))
	for i := range items {
		polls = append(polls, mapPollResponse(&items[i]))
	}
	SortNewestFirst(polls)

	r.log.Debug("Polls listed", "count", len(polls))
	return polls, nil
}

// DeletePoll removes a poll. Deletion is immediate and irreversible.
func (r *PollRepository) DeletePoll(ctx context.Context, pollID string) error {
	if err := r.client.Delete(ctx, pollPath(pollID)); err != nil {
		r.log.Error("Failed to delete poll", "poll_id", pollID, "error", err)
		return err
	}
	r.log.Info("Poll deleted", "poll_id", pollID)
	return nil
}

// SortNewestFirst orders polls by CreatedAt descending
func SortNewestFirst(polls []*poll.Poll) {
	sort.SliceStable(polls, func(i, j int) bool {
		return polls[i].CreatedAt > polls[j].CreatedAt
	})
}

func mapPollResponse(p *pollResponse) *poll.Poll {
	options := make([]poll.Option, len(p.Options))
	for i, o := range p.Options {
		options[i] = poll.Option{ID: o.ID, Text: o.Text}
	}
	return &poll.Poll{
		ID:        p.ID,
		Question:  p.Question,
		CreatedAt: p.CreatedAt,
		Options:   options,
	}
}

func pollPath(pollID string) string {
	return pollsPath + "/" + transport.PathSegment(pollID)
}

func emptyResponse(op string) error {
	return &transport.Error{Message: fmt.Sprintf("%s: server returned no content", op)}
}
