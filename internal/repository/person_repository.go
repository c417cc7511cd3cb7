package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// PersonRepository resolves national IDs to people.
type PersonRepository interface {
	GetByNationalID(ctx context.Context, nationalID string) (*domain.Person, error)
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

func (r *personRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Person, error) {
	const query = `
        SELECT national_id, names, last_names
        FROM persons WHERE national_id=$1`

	var p domain.Person
	if err := r.pool.QueryRow(ctx, query, nationalID).Scan(&p.NationalID, &p.Names, &p.LastNames); err != nil {
		return nil, err
	}
	return &p, nil
}
