// Package services contains the server-side business logic. UserService
// implements the authentication flows: password login, registration with a
// profile image, Google login and profile settings updates.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/dbx"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/dmitrijs2005/profilekeeper/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// googleSignupAttempts bounds retries when a generated username loses a race
// against a concurrent insert.
const googleSignupAttempts = 3

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(profile models.PublicProfile) (string, error)
}

type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
}

type MediaResolver interface {
	Resolve(original string) (key, url string)
}

// Upload is a file received from the client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type RegisterInput struct {
	FullName   string
	UserName   string
	Email      string
	Password   string
	ProfilePic *Upload
}

type GoogleLoginInput struct {
	Email    string
	FullName string
	Image    string
	GoogleID string
}

type UpdateSettingsInput struct {
	FullName   string
	UserName   string
	About      string
	Email      string
	ProfilePic *Upload
}

// AuthResult is returned by the login flows.
type AuthResult struct {
	Token   string
	User    models.PublicProfile
	Created bool
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenIssuer
	storage     ObjectStorage
	media       MediaResolver
	userNames   *userNameGenerator
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService wires the flows. db may be nil when the repository manager
// is not SQL-backed; updates then run without a transaction.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenIssuer,
	storage ObjectStorage, media MediaResolver, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		storage:     storage,
		media:       media,
		userNames:   newUserNameGenerator(),
		logger:      logger.With("module", "user_service"),
	}
}

// Login verifies email and password. Unknown email and wrong password yield
// the same error; accounts without a password must use Google login.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, common.ErrLoginFieldsRequired
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnHash(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if !user.HasPassword() {
		return nil, common.ErrUseExternalLogin
	}

	ok, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: verify password: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user, false)
}

// Register creates a password account. The record insert and the image
// upload run concurrently; if only one of them succeeds it is undone.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.PublicProfile, error) {
	if in.ProfilePic == nil || len(in.ProfilePic.Data) == 0 {
		return nil, common.ErrProfileImageMissing
	}
	if in.FullName == "" || in.UserName == "" || in.Email == "" || in.Password == "" {
		return nil, common.ErrAllFieldsRequired
	}

	repo := s.repomanager.Users(s.db)

	if err := checkUnique(ctx, repo, in.Email, in.UserName, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	key, url := s.media.Resolve(in.ProfilePic.FileName)

	user := &models.User{
		FullName:     in.FullName,
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: &hash,
		ProfilePic:   url,
	}

	var created, uploaded bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.storage.PutObject(gctx, key, in.ProfilePic.Data, in.ProfilePic.ContentType); err != nil {
			return err
		}
		uploaded = true
		return nil
	})
	g.Go(func() error {
		if _, err := repo.Create(gctx, user); err != nil {
			return err
		}
		created = true
		return nil
	})

	if err := g.Wait(); err != nil {
		s.compensateRegister(ctx, user, key, created, uploaded)
		var ce *common.Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: register: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	profile := user.PublicProfile()
	return &profile, nil
}

func (s *UserService) compensateRegister(ctx context.Context, user *models.User, key string, created, uploaded bool) {
	ctx = context.WithoutCancel(ctx)

	if created && !uploaded {
		if err := s.repomanager.Users(s.db).Delete(ctx, user.ID); err != nil {
			s.logger.Error(ctx, "rollback of user record failed", "user_id", user.ID, "error", err)
		}
	}
	if uploaded && !created {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.logger.Error(ctx, "rollback of profile image failed", "key", key, "error", err)
		}
	}
}

// GoogleLogin trusts the identity provider's assertion of email. Known
// emails log in; unknown ones get a new account with a generated username.
func (s *UserService) GoogleLogin(ctx context.Context, in GoogleLoginInput) (*AuthResult, error) {
	if in.Email == "" {
		return nil, common.ErrEmailRequired
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return s.authResult(user, false)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if in.Image == "" {
		return nil, common.ErrProfileImageMissing
	}

	var googleID *string
	if in.GoogleID != "" {
		googleID = &in.GoogleID
	}

	for attempt := 1; ; attempt++ {
		userName, err := s.userNames.Generate(ctx, repo, in.FullName)
		if err != nil {
			return nil, err
		}

		user = &models.User{
			FullName:     in.FullName,
			UserName:     userName,
			Email:        in.Email,
			ProfilePic:   in.Image,
			IsGoogleUser: true,
			GoogleID:     googleID,
		}

		_, err = repo.Create(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, common.ErrUserNameExists) && attempt < googleSignupAttempts {
			continue
		}
		var ce *common.Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "google account created", "user_id", user.ID)
	return s.authResult(user, true)
}

// UpdateSettings overwrites the caller's profile fields and, when a new image
// is supplied, uploads it and points the profile at it.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, in UpdateSettingsInput) (*models.PublicProfile, error) {
	if in.FullName == "" || in.UserName == "" || in.About == "" || in.Email == "" {
		return nil, common.ErrAllFieldsRequired
	}

	if err := checkUnique(ctx, s.repomanager.Users(s.db), in.Email, in.UserName, userID); err != nil {
		return nil, err
	}

	var (
		updated     *models.User
		uploadedKey string
	)

	err := dbx.NewTxRunner(s.db)(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(s.txOrDB(tx))

		user, err := repo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return err
		}

		user.FullName = in.FullName
		user.UserName = in.UserName
		user.About = in.About
		user.Email = in.Email

		if in.ProfilePic != nil && len(in.ProfilePic.Data) > 0 {
			key, url := s.media.Resolve(in.ProfilePic.FileName)
			if err := s.storage.PutObject(ctx, key, in.ProfilePic.Data, in.ProfilePic.ContentType); err != nil {
				return err
			}
			uploadedKey = key
			user.ProfilePic = url
		}

		if err := repo.Update(ctx, user); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return err
		}

		updated = user
		return nil
	})

	if err != nil {
		if uploadedKey != "" {
			if derr := s.storage.DeleteObject(context.WithoutCancel(ctx), uploadedKey); derr != nil {
				s.logger.Error(ctx, "rollback of profile image failed", "key", uploadedKey, "error", derr)
			}
		}
		var ce *common.Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update settings: %v", common.ErrorInternal, err)
	}

	profile := updated.PublicProfile()
	return &profile, nil
}

func (s *UserService) authResult(user *models.User, created bool) (*AuthResult, error) {
	profile := user.PublicProfile()
	token, err := s.tokens.Issue(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return &AuthResult{Token: token, User: profile, Created: created}, nil
}

// burnHash spends roughly the time of a real password check so a missing
// account is not distinguishable by latency.
func (s *UserService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		dummy, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = s.hasher.Hash(dummy)
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// txOrDB keeps the repository on the pool when there is no transaction.
func (s *UserService) txOrDB(tx dbx.DBTX) dbx.DBTX {
	if tx == nil {
		return s.db
	}
	return tx
}
