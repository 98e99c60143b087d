package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

// CreatedAtLayout is the wire format of Poll.CreatedAt. Fixed millisecond
// precision in UTC keeps the strings lexicographically ordered.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrPollNotFound  = errors.New("poll not found")
	ErrInvalidOption = errors.New("option does not belong to poll")
	ErrAlreadyVoted  = errors.New("voter already voted on poll")
)

// NewPoll is a validated create request
type NewPoll struct {
	Question string
	Options  []string
}

// PollStore persists polls and their ballots
type PollStore interface {
	CreatePoll(ctx context.Context, input NewPoll) (*poll.Poll, error)
	GetPoll(ctx context.Context, pollID string) (*poll.Poll, error)
	ListPolls(ctx context.Context) ([]*poll.Poll, error)
	DeletePoll(ctx context.Context, pollID string) error
	Results(ctx context.Context, pollID string) (*poll.Results, error)
	// RecordVote returns ErrPollNotFound, ErrInvalidOption or ErrAlreadyVoted
	// when the ballot is not recorded.
	RecordVote(ctx context.Context, pollID, optionID, voterID string) error
	// Health reports whether the store can serve requests
	Health(ctx context.Context) error
	Close() error
}

// ReasonFor maps a RecordVote error to the reason reported to the voter
func ReasonFor(err error) (poll.Reason, bool) {
	switch {
	case errors.Is(err, ErrAlreadyVoted):
		return poll.ReasonAlreadyVoted, true
	case errors.Is(err, ErrInvalidOption):
		return poll.ReasonInvalidOption, true
	case errors.Is(err, ErrPollNotFound):
		return poll.ReasonPollNotFound, true
	default:
		return poll.ReasonUnknown, false
	}
}

// Option configures a store
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces the clock used for creation timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the generator of poll and option ids
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FormatCreatedAt renders a creation time in wire format
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
