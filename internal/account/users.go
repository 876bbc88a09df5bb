package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/policy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

// NewUser describes a user created by an administrator
type NewUser struct {
	Username     string
	DisplayName  string
	ExternalID   string
	Role         cnst.Role // defaults to employee
	Password     string
	CompanySlugs []string
}

// ProfileUpdate changes descriptive fields. Nil fields stay untouched.
type ProfileUpdate struct {
	DisplayName *string
	ExternalID  *string
}

// UserDetail is a user with the slugs of its companies
type UserDetail struct {
	*database.User
	CompanySlugs []string `json:"companySlugs"`
}

// ListUsers lists every user. Admin-tier only.
func (s *Service) ListUsers(ctx context.Context, rc actor.RequestContext) ([]*database.User, error) {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageUsers}); err != nil {
		return nil, err
	}
	return s.db.ListUsers(ctx)
}

// GetUser returns one user with its sorted company slugs. Admin-tier only.
func (s *Service) GetUser(ctx context.Context, rc actor.RequestContext, id uint) (*UserDetail, error) {
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionManageUsers}); err != nil {
		return nil, err
	}
	u, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	companies, err := s.db.ListUserCompanies(ctx, id)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(companies))
	for _, c := range companies {
		slugs = append(slugs, c.Slug)
	}
	sort.Strings(slugs)
	return &UserDetail{User: u, CompanySlugs: slugs}, nil
}

// CreateUser creates a user with the given companies. The caller must be
// allowed to grant the requested role.
func (s *Service) CreateUser(ctx context.Context, rc actor.RequestContext, in NewUser) (*database.User, error) {
	role := in.Role
	if role == "" {
		role = cnst.RoleEmployee
	}
	if err := validRole(role); err != nil {
		return nil, err
	}
	if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionAssignRole, NewRole: role}); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.Invalid("username", "must not be empty")
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &database.User{
		Username:    username,
		DisplayName: strings.TrimSpace(in.DisplayName),
		ExternalID:  strings.TrimSpace(in.ExternalID),
		Password:    hash,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}
	err = s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.db.CreateUser(ctx, u); err != nil {
			return err
		}
		target := u.ID
		if err := s.audit.Record(ctx, rc, cnst.ActionCreateUser, audit.Targets{UserID: &target}, nil); err != nil {
			return err
		}
		if len(in.CompanySlugs) == 0 {
			return nil
		}
		_, err := s.guard.ReplaceMemberships(ctx, rc, u.ID, in.CompanySlugs)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created",
		zap.Uint("user_id", u.ID),
		zap.String("role", role.String()),
		zap.Uintp("actor_id", rc.ActorID()))
	return u, nil
}

// SetCompanies replaces the companies of a user
func (s *Service) SetCompanies(ctx context.Context, rc actor.RequestContext, id uint, slugs []string) ([]*database.Company, error) {
	return s.guard.ReplaceMemberships(ctx, rc, id, slugs)
}

// ResetPassword sets a random temporary password that must be changed at
// next login, and returns it
func (s *Service) ResetPassword(ctx context.Context, rc actor.RequestContext, id uint) (string, error) {
	temp, err := randomPassword(TempPasswordLen)
	if err != nil {
		return "", err
	}
	err = s.mutateUser(ctx, rc, id, policy.ActionResetPassword, "", func(u *database.User) (cnst.AuditAction, audit.Meta, error) {
		hash, err := s.hashPassword(temp)
		if err != nil {
			return "", nil, err
		}
		u.Password = hash
		u.MustChangePassword = true
		return cnst.ActionResetPassword, nil, nil
	})
	if err != nil {
		return "", err
	}
	return temp, nil
}

// SetRole changes the role of a user
func (s *Service) SetRole(ctx context.Context, rc actor.RequestContext, id uint, role cnst.Role) error {
	if err := validRole(role); err != nil {
		return err
	}
	return s.mutateUser(ctx, rc, id, policy.ActionAssignRole, role, func(u *database.User) (cnst.AuditAction, audit.Meta, error) {
		u.Role = role
		return cnst.ActionSetRole, audit.Meta{cnst.MetaNewRole: role.String()}, nil
	})
}

// SetDisabled disables or re-enables a user
func (s *Service) SetDisabled(ctx context.Context, rc actor.RequestContext, id uint, disabled bool) error {
	return s.mutateUser(ctx, rc, id, policy.ActionDisableUser, "", func(u *database.User) (cnst.AuditAction, audit.Meta, error) {
		u.Disabled = disabled
		return cnst.ActionDisableUser, audit.Meta{cnst.MetaDisabled: disabled}, nil
	})
}

// UpdateProfile changes the display name or the external integration id.
// Profile edits have no audit action of their own and are not recorded.
func (s *Service) UpdateProfile(ctx context.Context, rc actor.RequestContext, id uint, upd ProfileUpdate) (*database.User, error) {
	var out *database.User
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		u, err := s.db.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: policy.ActionModifyUser, TargetRole: u.Role}); err != nil {
			return err
		}
		if upd.DisplayName != nil {
			u.DisplayName = strings.TrimSpace(*upd.DisplayName)
		}
		if upd.ExternalID != nil {
			u.ExternalID = strings.TrimSpace(*upd.ExternalID)
		}
		out = u
		return s.db.UpdateUser(ctx, u)
	})
	return out, err
}

// mutateUser loads the target, asks the policy with its current role,
// applies fn and records the action fn returns, all in one transaction
func (s *Service) mutateUser(ctx context.Context, rc actor.RequestContext, id uint, action policy.Action, newRole cnst.Role,
	fn func(u *database.User) (cnst.AuditAction, audit.Meta, error)) error {
	return s.db.Transaction(ctx, func(ctx context.Context) error {
		u, err := s.db.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Decide(policy.Request{Actor: rc.Actor, Action: action, TargetRole: u.Role, NewRole: newRole}); err != nil {
			return err
		}
		auditAction, meta, err := fn(u)
		if err != nil {
			return err
		}
		if err := s.db.UpdateUser(ctx, u); err != nil {
			return err
		}
		target := u.ID
		return s.audit.Record(ctx, rc, auditAction, audit.Targets{UserID: &target}, meta)
	})
}

// randomPassword returns n URL-safe random characters
func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}

func validRole(role cnst.Role) error {
	if !role.Valid() {
		return apperr.Invalid("role", fmt.Sprintf("unknown role %q", role))
	}
	return nil
}
