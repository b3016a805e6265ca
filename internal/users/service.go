package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"songforge/internal/auth"
	"songforge/internal/logger"
	"songforge/internal/models"
)

// Operator errors are rejected before mutation with a specific reason.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
	ErrMainAdmin          = errors.New("the main admin cannot be modified or deleted")
	ErrUserHasOrders      = errors.New("cannot delete a user with associated orders")
)

type DBLayer interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// OrderCounter is the thin slice of the order service the deletion guard
// needs.
type OrderCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

type UserService struct {
	DB     DBLayer
	Orders OrderCounter
	Tokens *auth.TokenIssuer
	logger *logger.Logger
}

func NewUserService(db DBLayer, orders OrderCounter, tokens *auth.TokenIssuer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Orders: orders, Tokens: tokens, logger: log}
}

// Register creates a user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if existing, err := s.DB.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("USER", fmt.Sprintf("registered %s", user.ID))
	return &user, nil
}

// Login compares the bcrypt hash and issues a session token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.DB.GetUserByEmail(ctx, req.Email)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("USER", fmt.Sprintf("failed login for %s", req.Email))
		return nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &models.LoginResponse{Token: token, User: *user}, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.DB.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.DB.ListUsers(ctx)
}

// SetAdmin grants or revokes the admin flag. Revoking is refused for the
// main admin and for the last remaining admin.
func (s *UserService) SetAdmin(ctx context.Context, id string, isAdmin bool) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s not found: %w", id, err)
	}

	if !isAdmin {
		if user.IsMainAdmin {
			return nil, ErrMainAdmin
		}
		if user.IsAdmin {
			admins, err := s.DB.CountAdmins(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to count admins: %w", err)
			}
			if admins <= 1 {
				return nil, ErrLastAdmin
			}
		}
	}

	user.IsAdmin = isAdmin
	if err := s.DB.UpdateUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	s.logger.Info("USER", fmt.Sprintf("admin=%t for %s", isAdmin, id))
	return user, nil
}

// DeleteUser removes an account. Refused for the main admin, the last
// admin, and any user who still has orders.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("user %s not found: %w", id, err)
	}

	if user.IsMainAdmin {
		return ErrMainAdmin
	}
	if user.IsAdmin {
		admins, err := s.DB.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	count, err := s.Orders.CountByOwner(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count orders for %s: %w", id, err)
	}
	if count > 0 {
		return ErrUserHasOrders
	}

	if err := s.DB.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	s.logger.Warn("USER", fmt.Sprintf("deleted %s", id))
	return nil
}
