package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/freeler-client/internal/auth"
	"github.com/spec-kit/freeler-client/internal/config"
	"github.com/spec-kit/freeler-client/internal/domain"
	"github.com/spec-kit/freeler-client/internal/observability"
	"github.com/spec-kit/freeler-client/internal/repository"
	apperrors "github.com/spec-kit/freeler-client/pkg/util/errorutil"
)

const minPasswordLength = 8

// LoginResult describes a freshly issued session.
type LoginResult struct {
	SessionType domain.SessionType
	UserID      string
	Name        string
	Email       string
	CompanyID   string
	RoleLabel   string
	Token       string
	ExpiresAt   time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	agents   repository.AgentRepository
	staff    repository.StaffRepository
	tokenMgr *auth.TokenManager
	hasher   auth.Hasher
	logger   *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AgentRepo repository.AgentRepository
	StaffRepo repository.StaffRepository
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		agents:   deps.AgentRepo,
		staff:    deps.StaffRepo,
		tokenMgr: auth.NewTokenManager(cfg.Stub.JWTSecret, cfg.Stub.AccessTokenTTLMinutes),
		hasher:   auth.NewHasher(cfg.Stub.BcryptCost),
		logger:   observability.OrNop(deps.Logger),
	}
}

// Login authenticates against the account table selected by sessionType.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials, sessionType domain.SessionType) (*LoginResult, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	switch sessionType {
	case domain.SessionTypeReferralAgent:
		return s.loginAgent(ctx, creds)
	case domain.SessionTypeCompanyStaff:
		return s.loginStaff(ctx, creds)
	default:
		return nil, apperrors.NewValidationError("unknown session type", map[string]any{"sessionType": sessionType})
	}
}

func (s *AuthService) loginAgent(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	agent, err := s.agents.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, credentialError(err)
	}
	if agent.Status != domain.AccountStatusActive {
		return nil, apperrors.NewForbidden("account suspended")
	}
	if err := s.checkPassword(agent.ID, agent.PasswordHash, creds.Password); err != nil {
		return nil, err
	}
	return s.issue(domain.Token{SubjectID: agent.ID, SessionType: domain.SessionTypeReferralAgent}, agent.Name, agent.Email)
}

func (s *AuthService) loginStaff(ctx context.Context, creds domain.Credentials) (*LoginResult, error) {
	staff, err := s.staff.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, credentialError(err)
	}
	if !staff.Active {
		return nil, apperrors.NewForbidden("staff inactive")
	}
	if err := s.checkPassword(staff.ID, staff.PasswordHash, creds.Password); err != nil {
		return nil, err
	}
	if _, known := domain.ResolveRole(staff.RoleLabel); !known {
		s.logger.Warn("issuing token for unmapped role label",
			zap.String("staff_id", staff.ID),
			zap.String("role_label", staff.RoleLabel),
		)
	}
	return s.issue(domain.Token{
		SubjectID:   staff.ID,
		SessionType: domain.SessionTypeCompanyStaff,
		RoleLabel:   staff.RoleLabel,
		CompanyID:   staff.CompanyID,
	}, staff.Name, staff.Email)
}

// Register creates a referral agent account and signs it in.
func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (*LoginResult, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	if _, err := s.agents.GetByEmail(ctx, reg.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("invalid registration", map[string]any{"password": "too long"})
	} else if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	agent := &domain.ReferralAgent{
		Name:         reg.Name,
		Email:        reg.Email,
		NationalID:   reg.NationalID,
		Phone:        reg.Phone,
		PasswordHash: hash,
		Status:       domain.AccountStatusActive,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("referral agent registered", zap.String("agent_id", agent.ID))

	return s.issue(domain.Token{SubjectID: agent.ID, SessionType: domain.SessionTypeReferralAgent}, agent.Name, agent.Email)
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, subjectID string) error {
	s.logger.Debug("logout", zap.String("subject_id", subjectID))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(t domain.Token, name, email string) (*LoginResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(t)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		SessionType: t.SessionType,
		UserID:      t.SubjectID,
		Name:        name,
		Email:       email,
		CompanyID:   t.CompanyID,
		RoleLabel:   t.RoleLabel,
		Token:       token,
		ExpiresAt:   exp,
	}, nil
}

func (s *AuthService) checkPassword(accountID, hash, plain string) error {
	err := s.hasher.Compare(hash, plain)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrPasswordMismatch):
		return apperrors.NewUnauthorized("invalid credentials")
	default:
		s.logger.Error("stored password hash unusable", zap.String("account_id", accountID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
}

func credentialError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return apperrors.MapError(err)
}

func validateRegistration(reg domain.Registration) error {
	details := map[string]any{}
	if reg.Name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil || reg.Email == "" {
		details["email"] = "invalid"
	}
	if len(reg.Password) < minPasswordLength {
		details["password"] = "too short"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}
