package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shoply/marketplace-api/internal/model"
	"github.com/shoply/marketplace-api/internal/repository"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already in use")
	ErrCannotDeleteAdmin = errors.New("cannot delete admin users")
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes the caller's contact details. Email stays
// unique across users.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, email, phone, address string) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	user.Email = email
	user.Phone = phone
	user.Address = address
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// --- Admin back-office ---

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

func (s *UserService) AdminUpdate(ctx context.Context, userID uuid.UUID, name, email string, isAdmin bool) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	user.Name = name
	user.Email = email
	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes a user and, via cascades, their products, cart, and
// orders. Admin accounts are protected from deletion.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return ErrCannotDeleteAdmin
	}

	err = s.userRepo.Delete(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
