package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// AgentRepository defines persistence access for referral agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.ReferralAgent) error
	GetByID(ctx context.Context, id string) (*domain.ReferralAgent, error)
	GetByEmail(ctx context.Context, email string) (*domain.ReferralAgent, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository returns a Postgres-backed implementation.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.ReferralAgent) error {
	const query = `
        INSERT INTO referral_agents (name, email, national_id, phone, password_hash, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.NationalID,
		agent.Phone,
		agent.PasswordHash,
		agent.Status,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.ReferralAgent, error) {
	const query = `
        SELECT id, name, email, national_id, phone, password_hash, status, created_at, updated_at
        FROM referral_agents WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.ReferralAgent, error) {
	const query = `
        SELECT id, name, email, national_id, phone, password_hash, status, created_at, updated_at
        FROM referral_agents WHERE lower(email)=lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *agentRepository) scanOne(ctx context.Context, query string, arg any) (*domain.ReferralAgent, error) {
	var agent domain.ReferralAgent
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.NationalID,
		&agent.Phone,
		&agent.PasswordHash,
		&agent.Status,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
