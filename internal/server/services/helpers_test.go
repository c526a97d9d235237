package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/dbx"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/auth"
	"github.com/dmitrijs2005/profilekeeper/internal/server/media"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

var errBoom = errors.New("boom")

// fakeUsersRepo wraps the in-memory repository and injects failures.
type fakeUsersRepo struct {
	*users.MemoryRepository

	mu            sync.Mutex
	createErr     error
	createDelay   time.Duration
	getEmailErr   error
	getNameErr    error
	getIDErr      error
	updateErr     error
	deleted       []string
	userNameCalls []string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createDelay > 0 {
		select {
		case <-time.After(f.createDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.MemoryRepository.Create(ctx, u)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getEmailErr != nil {
		return nil, f.getEmailErr
	}
	return f.MemoryRepository.GetByEmail(ctx, email)
}

func (f *fakeUsersRepo) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	f.userNameCalls = append(f.userNameCalls, name)
	f.mu.Unlock()
	if f.getNameErr != nil {
		return nil, f.getNameErr
	}
	return f.MemoryRepository.GetByUserName(ctx, name)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getIDErr != nil {
		return nil, f.getIDErr
	}
	return f.MemoryRepository.GetByID(ctx, id)
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.MemoryRepository.Update(ctx, u)
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.MemoryRepository.Delete(ctx, id)
}

type fakeRepoManager struct {
	users *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }

// fakeStorage wraps MemoryStorage and injects failures.
type fakeStorage struct {
	*media.MemoryStorage

	mu       sync.Mutex
	putErr   error
	putDelay time.Duration
	deleted  []string
}

func (f *fakeStorage) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if f.putDelay > 0 {
		select {
		case <-time.After(f.putDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.putErr != nil {
		return f.putErr
	}
	return f.MemoryStorage.PutObject(ctx, key, body, contentType)
}

func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return f.MemoryStorage.DeleteObject(ctx, key)
}

type fixture struct {
	svc     *UserService
	repo    *fakeUsersRepo
	storage *fakeStorage
	tokens  *auth.TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := &fakeUsersRepo{MemoryRepository: users.NewMemoryRepository()}
	storage := &fakeStorage{MemoryStorage: media.NewMemoryStorage()}
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)

	svc := NewUserService(nil, &fakeRepoManager{users: repo}, auth.NewBcryptHasher(bcrypt.MinCost), tokens,
		storage, media.NewResolver("https://cdn.example.com", "profilePics"), logging.Nop{})

	return &fixture{svc: svc, repo: repo, storage: storage, tokens: tokens}
}

func pngUpload() *Upload {
	return &Upload{FileName: "me.png", ContentType: "image/png", Data: []byte("\x89PNG")}
}

func janeRegistration() RegisterInput {
	return RegisterInput{FullName: "Jane Doe", UserName: "janedoe", Email: "jane@x.com", Password: "secret123", ProfilePic: pngUpload()}
}
