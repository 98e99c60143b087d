package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/storage/database"
	"github.com/gravadigital/smartpolls/internal/storage/migrations"
)

// GormStore persists polls in a SQL database through GORM
type GormStore struct {
	db   *gorm.DB
	opts options
	log  *log.Logger
}

// NewGormStore applies pending migrations and returns the store
func NewGormStore(db *gorm.DB, opts ...Option) (*GormStore, error) {
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to migrate poll tables: %w", err)
	}
	return &GormStore{
		db:   db,
		opts: buildOptions(opts),
		log:  logger.Repository("poll_store"),
	}, nil
}

// CreatePoll inserts a poll and its options in one transaction
func (s *GormStore) CreatePoll(ctx context.Context, input NewPoll) (*poll.Poll, error) {
	texts := trimAll(input.Options)
	row := migrations.Poll{
		ID:        s.opts.newID(),
		Question:  input.Question,
		CreatedAt: s.opts.now().UTC(),
		Options:   make([]migrations.PollOption, len(texts)),
	}
	for i, text := range texts {
		row.Options[i] = migrations.PollOption{
			ID:       s.opts.newID(),
			PollID:   row.ID,
			Position: i,
			Text:     text,
		}
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Error("Failed to create poll", "error", err)
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	s.log.Debug("Poll created", "poll_id", row.ID, "options", len(row.Options))
	return toDomain(&row), nil
}

// GetPoll returns a poll with its options in creation order
func (s *GormStore) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	var row migrations.Poll
	err := s.withOptions(s.db.WithContext(ctx)).
		Where(&migrations.Poll{ID: pollID}).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return toDomain(&row), nil
}

// ListPolls returns all polls, newest first
func (s *GormStore) ListPolls(ctx context.Context) ([]*poll.Poll, error) {
	var rows []migrations.Poll
	err := s.withOptions(s.db.WithContext(ctx)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	polls := make([]*poll.Poll, len(rows))
	for i := range rows {
		polls[i] = toDomain(&rows[i])
	}
	return polls, nil
}

// DeletePoll removes a poll with its options and ballots
func (s *GormStore) DeletePoll(ctx context.Context, pollID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_id = ?", pollID).Delete(&migrations.Ballot{}).Error; err != nil {
			return fmt.Errorf("failed to delete ballots: %w", err)
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&migrations.PollOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete options: %w", err)
		}

		res := tx.Where(&migrations.Poll{ID: pollID}).Delete(&migrations.Poll{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete poll: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPollNotFound
		}
		return nil
	})
}

// Results counts ballots per option; options without ballots are omitted
func (s *GormStore) Results(ctx context.Context, pollID string) (*poll.Results, error) {
	db := s.db.WithContext(ctx)

	if err := s.ensurePoll(db, pollID); err != nil {
		return nil, err
	}

	var rows []struct {
		OptionID string
		Votes    int
	}
	err := db.Model(&migrations.Ballot{}).
		Select("option_id, COUNT(*) AS votes").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}

	votes := make(map[string]int, len(rows))
	for _, r := range rows {
		votes[r.OptionID] = r.Votes
	}
	return &poll.Results{PollID: pollID, Votes: votes}, nil
}

// RecordVote inserts a ballot. A second ballot of the same voter hits the
// unique index and is reported as ErrAlreadyVoted.
func (s *GormStore) RecordVote(ctx context.Context, pollID, optionID, voterID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensurePoll(tx, pollID); err != nil {
			return err
		}

		var count int64
		err := tx.Model(&migrations.PollOption{}).
			Where("id = ? AND poll_id = ?", optionID, pollID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check option: %w", err)
		}
		if count == 0 {
			return ErrInvalidOption
		}

		ballot := migrations.Ballot{PollID: pollID, VoterID: voterID, OptionID: optionID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ballot)
		if res.Error != nil {
			return fmt.Errorf("failed to record ballot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyVoted
		}
		return nil
	})
}

// Health pings the database and checks every poll table is queryable
func (s *GormStore) Health(ctx context.Context) error {
	if err := database.HealthCheck(s.db); err != nil {
		s.log.Error("Database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	for _, model := range migrations.AllModels() {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			s.log.Error("Table health check failed", "model", fmt.Sprintf("%T", model), "error", err)
			return fmt.Errorf("table health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the database connection
func (s *GormStore) Close() error {
	return database.Close(s.db)
}

func (s *GormStore) ensurePoll(db *gorm.DB, pollID string) error {
	var count int64
	if err := db.Model(&migrations.Poll{}).Where("id = ?", pollID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check poll: %w", err)
	}
	if count == 0 {
		return ErrPollNotFound
	}
	return nil
}

func (s *GormStore) withOptions(db *gorm.DB) *gorm.DB {
	return db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func toDomain(row *migrations.Poll) *poll.Poll {
	p := &poll.Poll{
		ID:        row.ID,
		Question:  row.Question,
		CreatedAt: FormatCreatedAt(row.CreatedAt),
		Options:   make([]poll.Option, len(row.Options)),
	}
	for i, opt := range row.Options {
		p.Options[i] = poll.Option{ID: opt.ID, Text: opt.Text}
	}
	return p
}
