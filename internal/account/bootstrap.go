package account

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/actor"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/pkg/utils"
)

const bootstrapPasswordLen = 24

// BootstrapSuperAdmin creates the first super_admin when none exists and
// writes its credentials to credentialsFile. The file is never overwritten:
// if it already exists the transaction rolls back and ErrBootstrapFileExists
// (from cnst) is returned. With a super_admin already present nothing is created and the
// file is not touched. Reports whether a user was created.
func (s *Service) BootstrapSuperAdmin(ctx context.Context, username, displayName, credentialsFile string) (bool, error) {
	username = utils.FirstNonEmpty(strings.TrimSpace(username), "superadmin")
	displayName = utils.FirstNonEmpty(strings.TrimSpace(displayName), "Super Admin")

	password, err := randomPassword(bootstrapPasswordLen)
	if err != nil {
		return false, err
	}

	created := false
	err = s.db.Transaction(ctx, func(ctx context.Context) error {
		n, err := s.db.CountUsersByRole(ctx, cnst.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		hash, err := s.hashPassword(password)
		if err != nil {
			return err
		}
		u := &database.User{
			Username:           username,
			DisplayName:        displayName,
			Password:           hash,
			Role:               cnst.RoleSuperAdmin,
			MustChangePassword: false,
			CreatedAt:          s.now().UTC(),
		}
		if err := s.db.CreateUser(ctx, u); err != nil {
			return err
		}
		target := u.ID
		if err := s.audit.Record(ctx, actor.System("", "bootstrap"), cnst.ActionCreateUser, audit.Targets{UserID: &target}, nil); err != nil {
			return err
		}
		// Last step, so a failed write rolls the user back.
		if err := writeCredentials(credentialsFile, username, password); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("super_admin bootstrapped",
			zap.String("username", username),
			zap.String("credentials_file", credentialsFile))
	}
	return created, nil
}

func writeCredentials(path, username, password string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", cnst.ErrBootstrapFileExists, path)
		}
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "username: %s\npassword: %s\n", username, password); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return f.Close()
}
