package services

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/smartpolls/internal/domain/poll"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/storage"
	"github.com/gravadigital/smartpolls/internal/validation"
)

// ErrVoterRequired se devuelve cuando un voto no trae voter id
var ErrVoterRequired = errors.New("voterId is required")

// ValidationError reporta datos de encuesta inválidos
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PollService maneja la lógica de negocio de encuestas
type PollService struct {
	store     storage.PollStore
	validator validation.PollValidation
	log       *log.Logger
}

// NewPollService crea una nueva instancia del servicio de encuestas
func NewPollService(store storage.PollStore, validator validation.PollValidation) *PollService {
	return &PollService{
		store:     store,
		validator: validator,
		log:       logger.WithContext("component", "poll_service"),
	}
}

// CreatePoll valida y crea una nueva encuesta
func (s *PollService) CreatePoll(ctx context.Context, question string, options []string) (*poll.Poll, error) {
	if err := s.validator.ValidatePoll(question, options); err != nil {
		return nil, &ValidationError{Err: err}
	}

	created, err := s.store.CreatePoll(ctx, storage.NewPoll{
		Question: strings.TrimSpace(question),
		Options:  options,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Poll created", "poll_id", created.ID, "options", len(created.Options))
	return created, nil
}

// GetPoll obtiene una encuesta por ID
func (s *PollService) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	return s.store.GetPoll(ctx, pollID)
}

// ListPolls obtiene todas las encuestas
func (s *PollService) ListPolls(ctx context.Context) ([]*poll.Poll, error) {
	return s.store.ListPolls(ctx)
}

// DeletePoll elimina una encuesta con sus opciones y votos
func (s *PollService) DeletePoll(ctx context.Context, pollID string) error {
	if err := s.store.DeletePoll(ctx, pollID); err != nil {
		return err
	}

	s.log.Info("Poll deleted", "poll_id", pollID)
	return nil
}

// Results obtiene el conteo de votos de una encuesta
func (s *PollService) Results(ctx context.Context, pollID string) (*poll.Results, error) {
	return s.store.Results(ctx, pollID)
}

// Vote registra un voto. Los rechazos esperados vuelven como resultado con
// motivo; solo las fallas del store se devuelven como error.
func (s *PollService) Vote(ctx context.Context, pollID, optionID, voterID string) (poll.VoteOutcome, error) {
	if strings.TrimSpace(voterID) == "" {
		return poll.VoteOutcome{}, ErrVoterRequired
	}

	err := s.store.RecordVote(ctx, pollID, optionID, voterID)
	if err == nil {
		s.log.Debug("Vote recorded", "poll_id", pollID, "option_id", optionID)
		return poll.Accepted(), nil
	}

	if reason, ok := storage.ReasonFor(err); ok {
		s.log.Debug("Vote rejected", "poll_id", pollID, "reason", reason)
		return poll.Rejected(reason), nil
	}
	return poll.VoteOutcome{}, err
}
