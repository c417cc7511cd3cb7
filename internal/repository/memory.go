package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/freeler-client/internal/domain"
)

// Memory holds in-process tables used when no Postgres DSN is configured.
// Misses return pgx.ErrNoRows so callers treat both backends alike.
type Memory struct {
	mu      sync.RWMutex
	agents  map[string]*domain.ReferralAgent
	staff   map[string]*domain.StaffMember
	persons map[string]*domain.Person
}

// NewMemory returns empty tables.
func NewMemory() *Memory {
	return &Memory{
		agents:  make(map[string]*domain.ReferralAgent),
		staff:   make(map[string]*domain.StaffMember),
		persons: make(map[string]*domain.Person),
	}
}

// Agents exposes the agent table.
func (m *Memory) Agents() AgentRepository { return memoryAgents{m} }

// Staff exposes the staff table.
func (m *Memory) Staff() StaffRepository { return memoryStaff{m} }

// Persons exposes the person table.
func (m *Memory) Persons() PersonRepository { return memoryPersons{m} }

// AddStaff inserts a staff member, assigning an ID when empty.
func (m *Memory) AddStaff(s domain.StaffMember) *domain.StaffMember {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	m.staff[s.ID] = &s
	return cloneStaff(&s)
}

// AddPerson inserts or replaces a person record.
func (m *Memory) AddPerson(p domain.Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons[p.NationalID] = &p
}

type memoryAgents struct{ m *Memory }

func (r memoryAgents) Create(_ context.Context, agent *domain.ReferralAgent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.agents {
		if strings.EqualFold(existing.Email, agent.Email) {
			return ErrDuplicate
		}
	}
	agent.ID = uuid.NewString()
	now := time.Now().UTC()
	agent.CreatedAt, agent.UpdatedAt = now, now
	stored := *agent
	r.m.agents[agent.ID] = &stored
	return nil
}

func (r memoryAgents) GetByID(_ context.Context, id string) (*domain.ReferralAgent, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	agent, ok := r.m.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *agent
	return &clone, nil
}

func (r memoryAgents) GetByEmail(_ context.Context, email string) (*domain.ReferralAgent, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, agent := range r.m.agents {
		if strings.EqualFold(agent.Email, email) {
			clone := *agent
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryStaff struct{ m *Memory }

func (r memoryStaff) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	staff, ok := r.m.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneStaff(staff), nil
}

func (r memoryStaff) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, staff := range r.m.staff {
		if strings.EqualFold(staff.Email, email) {
			return cloneStaff(staff), nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryPersons struct{ m *Memory }

func (r memoryPersons) GetByNationalID(_ context.Context, nationalID string) (*domain.Person, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.persons[nationalID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func cloneStaff(s *domain.StaffMember) *domain.StaffMember {
	clone := *s
	return &clone
}
