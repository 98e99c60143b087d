package poll

import (
	"fmt"
	"time"
)

// Poll is a question with an ordered list of options, as seen by the client
type Poll struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	CreatedAt string   `json:"createdAt"` // ISO-8601, as sent by the server
	Options   []Option `json:"options"`
}

// Option is a single answer of a poll
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Results holds the vote counts of a poll keyed by option ID.
// Options with no votes may be missing from Votes and count as zero.
type Results struct {
	PollID string         `json:"pollId"`
	Votes  map[string]int `json:"votes"`

	// Not provided by the server; always nil in this client.
	VotedBy   []string   `json:"votedBy,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// VoteSubmission is the request value for casting a vote
type VoteSubmission struct {
	OptionID string `json:"optionId"`
	VoterID  string `json:"voterId"`
}

// VoteOutcome is the structured acknowledgment of a vote submission.
// Reason is only meaningful when OK is false.
type VoteOutcome struct {
	OK     bool
	Reason Reason
}

// Accepted returns a successful outcome
func Accepted() VoteOutcome {
	return VoteOutcome{OK: true}
}

// Rejected returns a failed outcome with the given reason
func Rejected(reason Reason) VoteOutcome {
	return VoteOutcome{OK: false, Reason: reason}
}

// CountFor returns the number of votes for an option, zero when absent
func (r *Results) CountFor(optionID string) int {
	if r == nil {
		return 0
	}
	return r.Votes[optionID]
}

// Option returns the option with the given ID
func (p *Poll) Option(optionID string) (Option, bool) {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Validate checks the structural invariants of a poll
func (p *Poll) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Question == "" {
		return fmt.Errorf("question is required")
	}
	if len(p.Options) < 2 {
		return fmt.Errorf("poll must have at least 2 options, got %d", len(p.Options))
	}
	seen := make(map[string]struct{}, len(p.Options))
	for i, opt := range p.Options {
		if opt.ID == "" {
			return fmt.Errorf("option %d has no id", i)
		}
		if opt.Text == "" {
			return fmt.Errorf("option %s has no text", opt.ID)
		}
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("duplicate option id %s", opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	return nil
}
