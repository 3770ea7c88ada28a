package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"usermanagement/internal/auth"
	"usermanagement/internal/ids"
	"usermanagement/internal/models"
	"usermanagement/internal/repository"
	"usermanagement/internal/security"
	"usermanagement/internal/validation"
)

type AuthService struct {
	users  repository.UserStore
	hasher security.Hasher
	log    zerolog.Logger

	dummyOnce   sync.Once
	dummyDigest []byte
}

func NewAuthService(users repository.UserStore, hasher security.Hasher, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		log:    log,
	}
}

// Authenticate checks credentials for domain. Every credential failure,
// including a non-admin at the admin entry point, is ErrAuthentication.
func (s *AuthService) Authenticate(ctx context.Context, domain auth.Domain, email, password string) (models.User, error) {
	errs := validation.Errors{}
	if !validation.Email(email) {
		errs.Add("email", validation.MsgInvalidEmailAddress)
	}
	if !validation.Password(password) {
		errs.Add("password", validation.MsgInvalidPassword)
	}
	if !errs.Empty() {
		return models.User{}, &ValidationError{Fields: errs}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnVerify(password)
			return models.User{}, ErrAuthentication
		}
		return models.User{}, infra("find user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return models.User{}, infra("verify password", err)
	}
	if !ok {
		return models.User{}, ErrAuthentication
	}

	if domain == auth.DomainAdmin && !user.IsAdmin {
		s.log.Warn().Str("user_id", user.ID).Msg("non-admin login attempt at admin entry")
		return models.User{}, ErrAuthentication
	}

	return user, nil
}

// burnVerify spends the same hashing work for unknown accounts as for
// known ones so response time does not reveal which emails exist.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("not-a-real-password-1A")
		if err == nil {
			s.dummyDigest = digest
		}
	})
	if s.dummyDigest != nil {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
	}
}

type RegisterInput struct {
	Name            string
	Email           string
	Mobile          string
	Password        string
	ConfirmPassword string
}

// Register creates a regular account from the self-registration form.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Mobile = strings.TrimSpace(input.Mobile)

	errs := validation.Errors{}
	if !validation.Name(input.Name) {
		errs.Add("name", validation.MsgInvalidName)
	}
	if !validation.Mobile(input.Mobile) {
		errs.Add("mobile", validation.MsgInvalidMobile)
	}
	if !validation.Email(input.Email) {
		errs.Add("email", validation.MsgInvalidEmailAddress)
	}
	if !validation.Password(input.Password) {
		errs.Add("password", validation.MsgPasswordPolicy)
	}
	if input.Password != input.ConfirmPassword {
		errs.Add("confirmPassword", validation.MsgPasswordMismatch)
	}
	if !errs.Empty() {
		return models.User{}, &ValidationError{Fields: errs}
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, infra("hash password", err)
	}

	user := models.User{
		ID:           ids.New(),
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		Mobile:       input.Mobile,
		PasswordHash: digest,
		IsAdmin:      false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrConflict
		}
		return models.User{}, infra("create user", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// CurrentUser loads the record behind a session identity.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, infra("find user", err)
	}
	return user, nil
}
