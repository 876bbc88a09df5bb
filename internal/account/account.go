// Package account manages users: sessions, passwords, roles, company
// memberships and the one-time super_admin bootstrap.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/auth/jwt"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/policy"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

const (
	MinPasswordLen  = 10
	MaxPasswordLen  = 200
	TempPasswordLen = 14
)

// Service implements account operations
type Service struct {
	db       database.Database
	guard    *tenancy.Guard
	audit    *audit.Recorder
	tokens   *jwt.Service
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

// NewService creates an account service
func NewService(db database.Database, guard *tenancy.Guard, rec *audit.Recorder, tokens *jwt.Service, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		guard:    guard,
		audit:    rec,
		tokens:   tokens,
		logger:   logger.Named("account"),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// Login verifies credentials and issues a session token. Unknown users,
// disabled users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, rc actor.RequestContext, username, password string) (string, *database.User, error) {
	var user *database.User
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		u, err := s.db.GetUserByUsername(ctx, strings.TrimSpace(username))
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.ErrUnauthenticated
			}
			return err
		}
		if u.Disabled || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return apperr.ErrUnauthenticated
		}

		now := s.now().UTC()
		u.LastLoginAt = &now
		if err := s.db.UpdateUser(ctx, u); err != nil {
			return err
		}
		self := actor.RequestContext{Actor: &actor.Principal{UserID: u.ID, Role: u.Role}, IP: rc.IP, UserAgent: rc.UserAgent}
		if err := s.audit.Record(ctx, self, cnst.ActionLogin, audit.Targets{}, nil); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated {
			s.logger.Info("login rejected", zap.String("username", username), zap.String("ip", rc.IP))
		}
		return "", nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout records the end of a session. Tokens are stateless; the caller
// drops its cookie.
func (s *Service) Logout(ctx context.Context, rc actor.RequestContext) error {
	if rc.Actor == nil {
		return apperr.ErrUnauthenticated
	}
	return s.db.Transaction(ctx, func(ctx context.Context) error {
		return s.audit.Record(ctx, rc, cnst.ActionLogout, audit.Targets{}, nil)
	})
}

// Authenticate resolves a session token to a principal. The user must
// still exist and be enabled; the principal carries the stored role.
func (s *Service) Authenticate(ctx context.Context, token string) (*actor.Principal, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	u, err := s.db.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.ErrUnauthenticated
		}
		return nil, err
	}
	if u.Disabled {
		return nil, apperr.ErrUnauthenticated
	}
	return &actor.Principal{UserID: u.ID, Role: u.Role}, nil
}

// Me returns the user behind a principal
func (s *Service) Me(ctx context.Context, p *actor.Principal) (*database.User, error) {
	if p == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return s.db.GetUserByID(ctx, p.UserID)
}

// ChangePassword replaces the caller's password and clears the
// must-change flag
func (s *Service) ChangePassword(ctx context.Context, rc actor.RequestContext, newPassword string) error {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionChangeOwnPassword}); err != nil {
		return err
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.Transaction(ctx, func(ctx context.Context) error {
		u, err := s.db.GetUserByID(ctx, rc.Actor.UserID)
		if err != nil {
			return err
		}
		u.Password = hash
		u.MustChangePassword = false
		if err := s.db.UpdateUser(ctx, u); err != nil {
			return err
		}
		target := u.ID
		return s.audit.Record(ctx, rc, cnst.ActionChangePassword, audit.Targets{UserID: &target}, nil)
	})
}

func (s *Service) hashPassword(password string) (string, error) {
	if n := len([]rune(password)); n < MinPasswordLen || n > MaxPasswordLen {
		return "", apperr.Invalid("password", "must be between 10 and 200 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Invalid("password", "must not exceed 72 bytes")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
