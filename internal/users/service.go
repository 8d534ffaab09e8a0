package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/config"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
	"github.com/stylehaven-za/stylehaven-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes user account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	Login(ctx context.Context, input LoginInput) (*UserDTO, error)
	Customers(ctx context.Context) ([]UserDTO, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds a users service backed by the provided stack.
func NewService(repo Repository, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, passwordCfg: passwordCfg}, nil
}

// Register creates a customer account. Only the argon2id hash is stored.
func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		DOB:          input.DOB,
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, txErr := s.repo.WithTx(tx).Create(ctx, user)
		return txErr
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return toUserDTO(user), nil
}

// Login verifies the credentials and the requested role. Every failure mode
// returns the same generic message so the endpoint cannot be used to probe
// which emails exist.
func (s *service) Login(ctx context.Context, input LoginInput) (*UserDTO, error) {
	role, err := enums.ParseUserRole(input.Role)
	if err != nil {
		return nil, invalidCredentials()
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match || user.Role != role {
		return nil, invalidCredentials()
	}
	return toUserDTO(user), nil
}

// Customers lists customer accounts for the admin panel.
func (s *service) Customers(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.ListByRole(ctx, enums.UserRoleCustomer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toUserDTO(&rows[i]))
	}
	return out, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid email or password")
}
