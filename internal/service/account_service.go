package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"usermanagement/internal/ids"
	"usermanagement/internal/models"
	"usermanagement/internal/repository"
	"usermanagement/internal/security"
	"usermanagement/internal/validation"
)

// Credentials is what a newly provisioned user needs to sign in.
type Credentials struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Passkey  string `json:"passkey"`
	Password string `json:"password"`
}

// Provisioner hands admin-created credentials to their owner out of band.
type Provisioner interface {
	Deliver(ctx context.Context, creds Credentials) error
}

// SessionRevoker ends every session held by a user.
type SessionRevoker interface {
	DestroyUser(ctx context.Context, userID string) error
}

type AccountService struct {
	users         repository.UserStore
	hasher        security.Hasher
	provisioner   Provisioner
	sessions      SessionRevoker
	passkeyLength int
	newPasskey    func(n int) (string, error)
	log           zerolog.Logger
}

func NewAccountService(
	users repository.UserStore,
	hasher security.Hasher,
	provisioner Provisioner,
	sessions SessionRevoker,
	passkeyLength int,
	log zerolog.Logger,
) *AccountService {
	if passkeyLength <= 0 {
		passkeyLength = 6
	}
	return &AccountService{
		users:         users,
		hasher:        hasher,
		provisioner:   provisioner,
		sessions:      sessions,
		passkeyLength: passkeyLength,
		newPasskey:    security.GeneratePasskey,
		log:           log,
	}
}

type UserInput struct {
	Name   string
	Email  string
	Mobile string
}

func (in UserInput) normalize() UserInput {
	return UserInput{
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.TrimSpace(in.Email),
		Mobile: strings.TrimSpace(in.Mobile),
	}
}

func (in UserInput) validate() error {
	errs := validation.Errors{}
	if !validation.Name(in.Name) {
		errs.Add("name", validation.MsgInvalidName)
	}
	if !validation.Mobile(in.Mobile) {
		errs.Add("mobile", validation.MsgInvalidMobile)
	}
	if !validation.Email(in.Email) {
		errs.Add("email", validation.MsgInvalidEmailFormat)
	}
	if !errs.Empty() {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// CreateUser provisions a regular account with a generated passkey and
// delivers the credentials through the configured provisioner. If
// delivery fails the account is removed again, since nobody could sign in.
func (s *AccountService) CreateUser(ctx context.Context, input UserInput) (models.User, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return models.User{}, err
	}

	passkey, err := s.newPasskey(s.passkeyLength)
	if err != nil {
		return models.User{}, infra("generate passkey", err)
	}
	password := security.DerivePassword(passkey)

	digest, err := s.hasher.Hash(password)
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

	creds := Credentials{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Passkey:  passkey,
		Password: password,
	}
	if err := s.provisioner.Deliver(ctx, creds); err != nil {
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", user.ID).Msg("rollback of undeliverable account failed")
		}
		return models.User{}, infra("deliver credentials", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user created by admin")
	return user, nil
}

// EnsureAdmin creates an administrator account unless one with email
// already exists. It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	errs := validation.Errors{}
	if !validation.Name(name) {
		errs.Add("name", validation.MsgInvalidName)
	}
	if !validation.Email(email) {
		errs.Add("email", validation.MsgInvalidEmailAddress)
	}
	if !validation.Password(password) {
		errs.Add("password", validation.MsgPasswordPolicy)
	}
	if !errs.Empty() {
		return false, &ValidationError{Fields: errs}
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin {
			s.log.Warn().Str("user_id", existing.ID).Msg("bootstrap admin email belongs to a regular account")
		}
		return false, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return false, infra("find admin", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return false, infra("hash password", err)
	}
	admin := models.User{
		ID:           ids.New(),
		Name:         name,
		Email:        strings.ToLower(email),
		Mobile:       "",
		PasswordHash: digest,
		IsAdmin:      true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, nil
		}
		return false, infra("create admin", err)
	}

	s.log.Info().Str("user_id", admin.ID).Msg("bootstrap admin created")
	return true, nil
}

// UpdateUser changes name, email and mobile only.
func (s *AccountService) UpdateUser(ctx context.Context, id string, input UserInput) error {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return err
	}

	err := s.users.Update(ctx, id, models.UserUpdate{
		Name:   input.Name,
		Email:  input.Email,
		Mobile: input.Mobile,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrConflict
	default:
		return infra("update user", err)
	}
}

// DeleteUser removes the account and ends its sessions. Deleting an
// unknown id succeeds.
func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return infra("delete user", err)
	}
	if err := s.sessions.DestroyUser(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("revoke sessions of deleted user failed")
	}
	return nil
}

// Search lists regular (non-admin) accounts matching query.
func (s *AccountService) Search(ctx context.Context, query string) ([]models.User, error) {
	users, err := s.users.Search(ctx, strings.TrimSpace(query), false)
	if err != nil {
		return nil, infra("search users", err)
	}
	return users, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (models.User, error) {
	if id == "" {
		return models.User{}, ErrNotFound
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, infra("find user", err)
	}
	return user, nil
}
