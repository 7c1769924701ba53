package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/auth"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 5
	maxPasswordBytes  = 72
	maxNameLength     = 255
	maxEmailLength    = 255
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserUpdate is a partial change of the caller's own account. Nil fields
// are left as they are.
type UserUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// UserService provides account operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Authenticate: resolve a bearer token into its user
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashCost                     int

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashCost:                     cfg.PasswordHashCost,
	}
}

// Register creates an account. Malformed input and an already registered
// email are reported as *common.ValidationError.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	verr := &common.ValidationError{}
	checkEmail(verr, email)
	checkPassword(verr, password)
	checkName(verr, name)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("email", "user with this email already exists.")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns a new TokenPair. Unknown emails and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep timing close to the found case
			_, _ = auth.CheckPassword(s.getDummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown tokens yield ErrInvalidToken, expired
// ones ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Authenticate resolves an access token into the user it was issued to.
// A token of a deleted account yields common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	u, err := s.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, scoped(err)
	}
	return u, nil
}

// UpdateSelf applies upd to the account of userID. A password change
// revokes all refresh tokens of the account.
func (s *UserService) UpdateSelf(ctx context.Context, userID int64, upd UserUpdate) (*models.User, error) {
	verr := &common.ValidationError{}
	if upd.Email != nil {
		e := normalizeEmail(*upd.Email)
		upd.Email = &e
		checkEmail(verr, e)
	}
	if upd.Password != nil {
		checkPassword(verr, *upd.Password)
	}
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		upd.Name = &n
		checkName(verr, n)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var hash string
	if upd.Password != nil {
		h, err := auth.HashPassword(*upd.Password, s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, userID)
		if err != nil {
			return scoped(err)
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if hash != "" {
			u.PasswordHash = hash
		}

		if err := repo.Update(ctx, u); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.NewValidationError("email", "user with this email already exists.")
			}
			return scoped(err)
		}

		if hash != "" {
			if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID); err != nil {
				return fmt.Errorf("error revoking refresh tokens: %w", err)
			}
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteSelf removes the account together with its labels, recipes and
// tokens.
func (s *UserService) DeleteSelf(ctx context.Context, userID int64) error {
	return scoped(s.repomanager.Users(s.db).Delete(ctx, userID))
}

// --- helpers below ---

func checkEmail(verr *common.ValidationError, email string) {
	switch {
	case email == "":
		verr.Add("email", "This field may not be blank.")
	case len([]rune(email)) > maxEmailLength:
		verr.Add("email", fmt.Sprintf("Ensure this field has no more than %d characters.", maxEmailLength))
	case validate.Var(email, "email") != nil:
		verr.Add("email", "Enter a valid email address.")
	}
}

func checkPassword(verr *common.ValidationError, password string) {
	switch {
	case len([]rune(password)) < minPasswordLength:
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", minPasswordLength))
	case len(password) > maxPasswordBytes:
		// bcrypt rejects longer input.
		verr.Add("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordBytes))
	}
}

func checkName(verr *common.ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", "This field may not be blank.")
	case len([]rune(name)) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
}

func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("dummy-password", s.hashCost)
	})
	return s.dummyHash
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
