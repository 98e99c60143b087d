package migrations

import (
	"time"
)

// Core models of the polls backend

// Poll is a question with a fixed, ordered set of options
type Poll struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Question  string    `gorm:"not null;size:200" json:"question"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	// Relations
	Options []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	Ballots []Ballot     `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"-"`
}

// PollOption is one answer of a poll; Position keeps the creation order
type PollOption struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	PollID   string `gorm:"not null;size:36;index" json:"poll_id"`
	Position int    `gorm:"not null" json:"position"`
	Text     string `gorm:"not null;size:100" json:"text"`
}

// Ballot is a single vote. The unique index on (poll_id, voter_id) enforces
// one ballot per voter and poll.
type Ballot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID    string    `gorm:"not null;size:36;uniqueIndex:idx_ballots_poll_voter" json:"poll_id"`
	VoterID   string    `gorm:"not null;size:191;uniqueIndex:idx_ballots_poll_voter" json:"voter_id"`
	OptionID  string    `gorm:"not null;size:36" json:"option_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Table names
func (Poll) TableName() string       { return "polls" }
func (PollOption) TableName() string { return "poll_options" }
func (Ballot) TableName() string     { return "ballots" }

// AllModels returns all models for migration, parents first
func AllModels() []any {
	return []any{
		&Poll{},
		&PollOption{},
		&Ballot{},
	}
}
