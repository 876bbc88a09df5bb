package account

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/auth/jwt"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/tenancy"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	db      database.Database
	rec     *audit.Recorder
	catalog *tenancy.Catalog
	svc     *Service
	root    actor.RequestContext // super_admin
	admin   actor.RequestContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	rec := audit.NewRecorder(db, logger, nil)
	guard := tenancy.NewGuard(db, rec, logger)
	tokens, err := jwt.NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)

	svc := NewService(db, guard, rec, tokens, logger)
	svc.hashCost = bcrypt.MinCost

	f := &fixture{db: db, rec: rec, catalog: tenancy.NewCatalog(db, guard, logger), svc: svc}
	f.root = f.seed(t, "root", cnst.RoleSuperAdmin, "root-password-1")
	f.admin = f.seed(t, "boss", cnst.RoleAdmin, "boss-password-1")
	return f
}

func (f *fixture) seed(t *testing.T, username string, role cnst.Role, password string) actor.RequestContext {
	t.Helper()
	hash, err := f.svc.hashPassword(password)
	require.NoError(t, err)
	u := &database.User{Username: username, DisplayName: username, Password: hash, Role: role}
	require.NoError(t, f.db.CreateUser(context.Background(), u))
	return actor.New(u.ID, role, "10.0.0.1", "test-agent")
}

func (f *fixture) entries(t *testing.T, action cnst.AuditAction) []*audit.Entry {
	t.Helper()
	out, err := f.rec.List(context.Background(), audit.Filter{Action: action, Limit: audit.MaxListLimit})
	require.NoError(t, err)
	return out
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc := actor.System("10.1.1.1", "browser")

	token, user, err := f.svc.Login(ctx, rc, " boss ", "boss-password-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "boss", user.Username)
	require.NotNil(t, user.LastLoginAt)

	p, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, cnst.RoleAdmin, p.Role)

	logins := f.entries(t, cnst.ActionLogin)
	require.Len(t, logins, 1)
	require.NotNil(t, logins[0].ActorUserID)
	assert.Equal(t, user.ID, *logins[0].ActorUserID)
	assert.Equal(t, "10.1.1.1", logins[0].IP)
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc := actor.System("", "")

	require.NoError(t, f.svc.SetDisabled(ctx, f.root, f.admin.Actor.UserID, true))

	for name, creds := range map[string][2]string{
		"unknown user":   {"ghost", "whatever-password"},
		"wrong password": {"root", "not-the-password"},
		"disabled user":  {"boss", "boss-password-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := f.svc.Login(ctx, rc, creds[0], creds[1])
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
	assert.Empty(t, f.entries(t, cnst.ActionLogin))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	token, err := f.svc.tokens.GenerateToken(9999, cnst.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated, "deleted users lose their sessions")

	// A token carries the role it was issued with; the stored role wins.
	token, err = f.svc.tokens.GenerateToken(f.admin.Actor.UserID, cnst.RoleSuperAdmin)
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, cnst.RoleAdmin, p.Role)

	require.NoError(t, f.svc.SetDisabled(ctx, f.root, f.admin.Actor.UserID, true))
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogoutAndMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Logout(ctx, actor.System("", "")), apperr.ErrUnauthenticated)
	require.NoError(t, f.svc.Logout(ctx, f.admin))
	assert.Len(t, f.entries(t, cnst.ActionLogout), 1)

	me, err := f.svc.Me(ctx, f.admin.Actor)
	require.NoError(t, err)
	assert.Equal(t, "boss", me.Username)
	_, err = f.svc.Me(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.admin, "short")
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
	err = f.svc.ChangePassword(ctx, f.admin, strings.Repeat("é", 50))
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err), "over bcrypt's byte limit")

	require.NoError(t, f.svc.ChangePassword(ctx, f.admin, "a-brand-new-password"))
	_, _, err = f.svc.Login(ctx, actor.System("", ""), "boss", "a-brand-new-password")
	require.NoError(t, err)

	entries := f.entries(t, cnst.ActionChangePassword)
	require.Len(t, entries, 1)
	assert.Equal(t, f.admin.Actor.UserID, *entries[0].TargetUserID)

	err = f.svc.ChangePassword(ctx, f.root, "another-password")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.catalog.UpsertCompany(ctx, f.admin, "acme", "Acme")
	require.NoError(t, err)
	_, _, err = f.catalog.UpsertCompany(ctx, f.admin, "globex", "Globex")
	require.NoError(t, err)

	u, err := f.svc.CreateUser(ctx, f.admin, NewUser{
		Username:     "nurse",
		DisplayName:  "Nurse Joy",
		Password:     "nurse-password",
		CompanySlugs: []string{"globex", "acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, cnst.RoleEmployee, u.Role)

	detail, err := f.svc.GetUser(ctx, f.admin, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, detail.CompanySlugs)
	assert.Len(t, f.entries(t, cnst.ActionCreateUser), 1)
	assert.Len(t, f.entries(t, cnst.ActionAssignCompany), 2)

	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Username: "nurse", Password: "nurse-password"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Username: "root2", Password: "root2-password", Role: cnst.RoleSuperAdmin})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Username: "lost", Password: "lost-password", CompanySlugs: []string{"nowhere"}})
	require.Error(t, err)
	assert.Equal(t, []string{"nowhere"}, apperr.DetailsOf(err)["missing_company_slugs"])
	_, err = f.db.GetUserByUsername(ctx, "lost")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "an unknown company rolls the user back")
	assert.Len(t, f.entries(t, cnst.ActionCreateUser), 1)

	users, err := f.svc.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp, err := f.svc.CreateUser(ctx, f.admin, NewUser{Username: "emp", Password: "emp-password-1"})
	require.NoError(t, err)

	temp, err := f.svc.ResetPassword(ctx, f.admin, emp.ID)
	require.NoError(t, err)
	assert.Len(t, temp, TempPasswordLen)

	_, user, err := f.svc.Login(ctx, actor.System("", ""), "emp", temp)
	require.NoError(t, err)
	assert.True(t, user.MustChangePassword)

	self := actor.New(emp.ID, cnst.RoleEmployee, "", "")
	require.NoError(t, f.svc.ChangePassword(ctx, self, "emp-password-2"))
	me, err := f.svc.Me(ctx, self.Actor)
	require.NoError(t, err)
	assert.False(t, me.MustChangePassword)

	_, err = f.svc.ResetPassword(ctx, f.admin, f.root.Actor.UserID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.ResetPassword(ctx, self, f.admin.Actor.UserID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Len(t, f.entries(t, cnst.ActionResetPassword), 1)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp, err := f.svc.CreateUser(ctx, f.admin, NewUser{Username: "emp", Password: "emp-password-1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetRole(ctx, f.admin, emp.ID, cnst.RoleAdmin))
	entries := f.entries(t, cnst.ActionSetRole)
	require.Len(t, entries, 1)
	assert.Equal(t, "admin", entries[0].Meta[cnst.MetaNewRole])

	assert.ErrorIs(t, f.svc.SetRole(ctx, f.admin, emp.ID, cnst.RoleSuperAdmin), apperr.ErrForbidden)
	assert.ErrorIs(t, f.svc.SetRole(ctx, f.admin, f.root.Actor.UserID, cnst.RoleEmployee), apperr.ErrForbidden)
	assert.ErrorIs(t, f.svc.SetRole(ctx, f.root, emp.ID, cnst.Role("owner")), apperr.ErrValidationFailed)
	assert.ErrorIs(t, f.svc.SetRole(ctx, f.admin, emp.ID, cnst.Role("owner")), apperr.ErrValidationFailed)
	_, err = f.svc.CreateUser(ctx, f.admin, NewUser{Username: "ghost", Password: "ghost-password", Role: cnst.Role("owner")})
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Len(t, f.entries(t, cnst.ActionCreateUser), 1)
	require.NoError(t, f.svc.SetRole(ctx, f.root, emp.ID, cnst.RoleSuperAdmin))

	err = f.svc.SetRole(ctx, f.root, 9999, cnst.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetDisabledAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp, err := f.svc.CreateUser(ctx, f.admin, NewUser{Username: "emp", Password: "emp-password-1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.SetDisabled(ctx, f.admin, emp.ID, true))
	entries := f.entries(t, cnst.ActionDisableUser)
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].Meta[cnst.MetaDisabled])
	assert.ErrorIs(t, f.svc.SetDisabled(ctx, f.admin, f.root.Actor.UserID, true), apperr.ErrForbidden)

	name, ext := "  Employee One ", "EXT-1"
	u, err := f.svc.UpdateProfile(ctx, f.admin, emp.ID, ProfileUpdate{DisplayName: &name, ExternalID: &ext})
	require.NoError(t, err)
	assert.Equal(t, "Employee One", u.DisplayName)
	assert.Equal(t, "EXT-1", u.ExternalID)

	_, err = f.svc.UpdateProfile(ctx, f.admin, f.root.Actor.UserID, ProfileUpdate{DisplayName: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestBootstrapSuperAdmin(t *testing.T) {
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	logger := zap.NewNop()
	rec := audit.NewRecorder(db, logger, nil)
	tokens, err := jwt.NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	svc := NewService(db, tenancy.NewGuard(db, rec, logger), rec, tokens, logger)
	svc.hashCost = bcrypt.MinCost
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "secrets", "superadmin.txt")
	created, err := svc.BootstrapSuperAdmin(ctx, "", "Super Admin", path)
	require.NoError(t, err)
	assert.True(t, created)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "username: superadmin", lines[0])
	password := strings.TrimPrefix(lines[1], "password: ")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, user, err := svc.Login(ctx, actor.System("", ""), "superadmin", password)
	require.NoError(t, err)
	assert.Equal(t, cnst.RoleSuperAdmin, user.Role)

	created, err = svc.BootstrapSuperAdmin(ctx, "", "", path)
	require.NoError(t, err)
	assert.False(t, created, "a super_admin already exists")

	entries, err := rec.List(ctx, audit.Filter{Action: cnst.ActionCreateUser})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ActorUserID)
}

func TestBootstrapSuperAdmin_ExistingFileIsKept(t *testing.T) {
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	logger := zap.NewNop()
	rec := audit.NewRecorder(db, logger, nil)
	tokens, err := jwt.NewService(config.JWTConfig{SecretKey: testSecret, Duration: time.Hour})
	require.NoError(t, err)
	svc := NewService(db, tenancy.NewGuard(db, rec, logger), rec, tokens, logger)
	svc.hashCost = bcrypt.MinCost
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "superadmin.txt")
	require.NoError(t, os.WriteFile(path, []byte("keep me\n"), 0o600))

	created, err := svc.BootstrapSuperAdmin(ctx, "superadmin", "", path)
	assert.ErrorIs(t, err, cnst.ErrBootstrapFileExists)
	assert.False(t, created)

	n, err := db.CountUsersByRole(ctx, cnst.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me\n", string(raw))
}
