package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/repository"
	apperrors "github.com/spec-kit/freeler-client/pkg/util/errorutil"
)

// LookupService resolves national IDs to people.
type LookupService struct {
	persons repository.PersonRepository
}

// NewLookupService builds the service.
func NewLookupService(persons repository.PersonRepository) *LookupService {
	return &LookupService{persons: persons}
}

// FindPerson returns the person registered under nationalID.
func (s *LookupService) FindPerson(ctx context.Context, nationalID string) (*domain.Person, error) {
	if nationalID == "" || !allDigits(nationalID) {
		return nil, apperrors.NewValidationError("national id must be numeric", map[string]any{"nationalId": nationalID})
	}
	person, err := s.persons.GetByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("person", map[string]any{"nationalId": nationalID})
		}
		return nil, apperrors.MapError(err)
	}
	return person, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
