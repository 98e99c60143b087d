package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Poll form limits
const (
	MinOptions        = 2
	DefaultMaxOptions = 6
	MaxQuestionLength = 200
	MaxOptionLength   = 100
)

// ValidateRequired valida que un campo no esté vacío
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

// ValidateMaxLength valida la longitud máxima de un string
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return fmt.Errorf("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// PollValidation contiene validaciones específicas para encuestas
type PollValidation struct {
	MaxOptions int
}

// NewPollValidation returns the validation for up to maxOptions options
func NewPollValidation(maxOptions int) PollValidation {
	if maxOptions < MinOptions {
		maxOptions = DefaultMaxOptions
	}
	return PollValidation{MaxOptions: maxOptions}
}

// ValidateQuestion valida la pregunta de una encuesta
func (v PollValidation) ValidateQuestion(question string) error {
	if err := ValidateRequired(question, "question"); err != nil {
		return err
	}
	return ValidateMaxLength(strings.TrimSpace(question), MaxQuestionLength, "question")
}

// ValidateOptions valida las opciones: cantidad, texto y duplicados
func (v PollValidation) ValidateOptions(options []string) error {
	maxOptions := v.MaxOptions
	if maxOptions < MinOptions {
		maxOptions = DefaultMaxOptions
	}

	if len(options) < MinOptions {
		return fmt.Errorf("at least %d options are required", MinOptions)
	}
	if len(options) > maxOptions {
		return fmt.Errorf("at most %d options are allowed", maxOptions)
	}

	seen := make(map[string]int, len(options))
	for i, opt := range options {
		field := fmt.Sprintf("option %d", i+1)
		if err := ValidateRequired(opt, field); err != nil {
			return err
		}
		text := strings.TrimSpace(opt)
		if err := ValidateMaxLength(text, MaxOptionLength, field); err != nil {
			return err
		}

		key := strings.ToLower(text)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("option %d duplicates option %d", i+1, prev+1)
		}
		seen[key] = i
	}
	return nil
}

// ValidatePoll valida la pregunta y las opciones
func (v PollValidation) ValidatePoll(question string, options []string) error {
	if err := v.ValidateQuestion(question); err != nil {
		return err
	}
	return v.ValidateOptions(options)
}
