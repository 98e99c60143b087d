package repository

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/transport"
)

type resultsResponse struct {
	PollID string         `json:"pollId"`
	Votes  map[string]int `json:"votes"`
}

type voteRequest struct {
	OptionID string `json:"optionId"`
	VoterID  string `json:"voterId"`
}

// voteResponse carries the reason code in Message when OK is false
type voteResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// VoterIDSource provides the device voter ID
type VoterIDSource interface {
	VoterID(ctx context.Context) (string, error)
}

// ResultsRepository reads vote counts and submits votes
type ResultsRepository struct {
	client *transport.Client
	voter  VoterIDSource
	log    *log.Logger
}

// NewResultsRepository creates a repository; voter may be nil when only
// SubmitVote with an explicit voter ID is used.
func NewResultsRepository(client *transport.Client, voter VoterIDSource) *ResultsRepository {
	return &ResultsRepository{
		client: client,
		voter:  voter,
		log:    logger.Repository("results"),
	}
}

// GetResults fetches the current vote counts of a poll. Results are never
// cached; every call hits the backend.
func (r *ResultsRepository) GetResults(ctx context.Context, pollID string) (*poll.Results, error) {
	res, err := transport.Get[resultsResponse](ctx, r.client, pollPath(pollID)+"/results")
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, emptyResponse("get results")
	}

	votes := res.Votes
	if votes == nil {
		votes = map[string]int{}
	}
	return &poll.Results{PollID: res.PollID, Votes: votes}, nil
}

// SubmitVote sends a vote. A rejected vote is a normal outcome, not an
// error; the error return is reserved for transport failures.
func (r *ResultsRepository) SubmitVote(ctx context.Context, pollID string, vote poll.VoteSubmission) (poll.VoteOutcome, error) {
	res, err := transport.Post[voteRequest, voteResponse](ctx, r.client, pollPath(pollID)+"/vote", voteRequest{
		OptionID: vote.OptionID,
		VoterID:  vote.VoterID,
	})
	if err != nil {
		r.log.Error("Vote submission failed", "poll_id", pollID, "error", err)
		return poll.VoteOutcome{}, err
	}
	if res == nil {
		return poll.VoteOutcome{}, emptyResponse("submit vote")
	}

	if !res.OK {
		reason := poll.ParseReason(res.Message)
		r.log.Warn("Vote rejected", "poll_id", pollID, "reason", reason)
		return poll.Rejected(reason), nil
	}

	r.log.Info("Vote accepted", "poll_id", pollID, "option_id", vote.OptionID)
	return poll.Accepted(), nil
}

// Vote submits a vote tagged with this device's voter ID
func (r *ResultsRepository) Vote(ctx context.Context, pollID, optionID string) (poll.VoteOutcome, error) {
	if r.voter == nil {
		return poll.VoteOutcome{}, fmt.Errorf("no voter identity configured")
	}

	voterID, err := r.voter.VoterID(ctx)
	if err != nil {
		return poll.VoteOutcome{}, err
	}
	return r.SubmitVote(ctx, pollID, poll.VoteSubmission{OptionID: optionID, VoterID: voterID})
}
