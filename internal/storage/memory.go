package storage

import (
	"context"
	"sync"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
)

type memoryPoll struct {
	poll    poll.Poll
	ballots map[string]string // voter id -> option id
	counts  map[string]int
}

// MemoryStore keeps polls in process memory
type MemoryStore struct {
	mu    sync.Mutex
	opts  options
	polls map[string]*memoryPoll
	order []string
}

// NewMemoryStore initializes an empty store
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:  buildOptions(opts),
		polls: make(map[string]*memoryPoll),
	}
}

// CreatePoll adds a new poll with generated ids
func (s *MemoryStore) CreatePoll(ctx context.Context, input NewPoll) (*poll.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	texts := trimAll(input.Options)
	p := poll.Poll{
		ID:        s.opts.newID(),
		Question:  input.Question,
		CreatedAt: FormatCreatedAt(s.opts.now()),
		Options:   make([]poll.Option, len(texts)),
	}
	for i, text := range texts {
		p.Options[i] = poll.Option{ID: s.opts.newID(), Text: text}
	}

	s.polls[p.ID] = &memoryPoll{
		poll:    p,
		ballots: make(map[string]string),
		counts:  make(map[string]int),
	}
	s.order = append(s.order, p.ID)
	return clonePoll(&p), nil
}

// GetPoll returns a poll by id
func (s *MemoryStore) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}
	return clonePoll(&mp.poll), nil
}

// ListPolls returns all polls in creation order
func (s *MemoryStore) ListPolls(ctx context.Context) ([]*poll.Poll, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*poll.Poll, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, clonePoll(&s.polls[id].poll))
	}
	return list, nil
}

// DeletePoll removes a poll together with its ballots
func (s *MemoryStore) DeletePoll(ctx context.Context, pollID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[pollID]; !ok {
		return ErrPollNotFound
	}
	delete(s.polls, pollID)
	for i, id := range s.order {
		if id == pollID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Results returns the counts of options with at least one vote
func (s *MemoryStore) Results(ctx context.Context, pollID string) (*poll.Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}

	votes := make(map[string]int, len(mp.counts))
	for id, n := range mp.counts {
		if n > 0 {
			votes[id] = n
		}
	}
	return &poll.Results{PollID: pollID, Votes: votes}, nil
}

// RecordVote records one ballot per voter and poll
func (s *MemoryStore) RecordVote(ctx context.Context, pollID, optionID, voterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.polls[pollID]
	if !ok {
		return ErrPollNotFound
	}
	if _, ok := mp.poll.Option(optionID); !ok {
		return ErrInvalidOption
	}
	if _, voted := mp.ballots[voterID]; voted {
		return ErrAlreadyVoted
	}

	mp.ballots[voterID] = optionID
	mp.counts[optionID]++
	return nil
}

// Health only fails when ctx is done
func (s *MemoryStore) Health(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func clonePoll(p *poll.Poll) *poll.Poll {
	out := *p
	out.Options = append([]poll.Option(nil), p.Options...)
	return &out
}
