package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/users"
)

// checkUnique fails with a conflict when email or userName belongs to a user
// other than excludeID. Email is checked first, so it is the error reported
// when both collide.
func checkUnique(ctx context.Context, repo users.Repository, email, userName, excludeID string) error {
	u, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil && u.ID != excludeID:
		return common.ErrEmailExists
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%w: check email: %v", common.ErrorInternal, err)
	}

	u, err = repo.GetByUserName(ctx, userName)
	switch {
	case err == nil && u.ID != excludeID:
		return common.ErrUserNameExists
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%w: check username: %v", common.ErrorInternal, err)
	}

	return nil
}
