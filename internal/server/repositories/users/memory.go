package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory and enforces the same
// uniqueness rules as the Postgres schema.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(user, ""); err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, common.ErrorInvalidUser
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = clone(user)

	return user, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *MemoryRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.UserName == userName })
}

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if err := r.checkUnique(user, user.ID); err != nil {
		return err
	}

	stored.FullName = user.FullName
	stored.UserName = user.UserName
	stored.Email = user.Email
	stored.About = user.About
	stored.ProfilePic = user.ProfilePic
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored

	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) find(match func(u *models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			c := clone(&u)
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// checkUnique must be called with the write lock held. Each field gets its
// own pass so email is reported before username, and username before the
// Google id, whichever records collide.
func (r *MemoryRepository) checkUnique(user *models.User, excludeID string) error {
	checks := []struct {
		taken func(u *models.User) bool
		err   error
	}{
		{func(u *models.User) bool { return u.Email == user.Email }, common.ErrEmailExists},
		{func(u *models.User) bool { return u.UserName == user.UserName }, common.ErrUserNameExists},
		{func(u *models.User) bool {
			return u.GoogleID != nil && user.GoogleID != nil && *u.GoogleID == *user.GoogleID
		}, common.ErrExternalIDExists},
	}

	for _, c := range checks {
		for id, u := range r.users {
			if id != excludeID && c.taken(&u) {
				return c.err
			}
		}
	}
	return nil
}

func clone(u *models.User) models.User {
	c := *u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		c.PasswordHash = &h
	}
	if u.GoogleID != nil {
		g := *u.GoogleID
		c.GoogleID = &g
	}
	return c
}
