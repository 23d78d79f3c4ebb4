package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

type tokenIssuer interface {
	GenerateToken(userID int64, email string) (string, error)
	TTL() time.Duration
}

// Service contains the business logic for accounts and storage quotas.
type Service struct {
	users        Repository
	jwt          tokenIssuer
	defaultQuota int64
	now          func() time.Time
}

func NewService(users Repository, jwt tokenIssuer, defaultQuota int64) *Service {
	return &Service{
		users:        users,
		jwt:          jwt,
		defaultQuota: defaultQuota,
		now:          time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := checkPasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(req.Name),
		StorageQuota: s.defaultQuota,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("user_registered user_id=%d", user.ID)

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		log.Printf("login_touch_failed user_id=%d err=%v", user.ID, err)
	}
	user.LastLoginAt = &now

	return s.issue(user)
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ReserveStorage claims bytes of the user's quota ahead of an upload.
func (s *Service) ReserveStorage(ctx context.Context, userID int64, bytes int64) error {
	return s.users.ReserveStorage(ctx, userID, bytes)
}

// ReleaseStorage returns bytes to the user's quota after a failed upload or a delete.
func (s *Service) ReleaseStorage(ctx context.Context, userID int64, bytes int64) error {
	return s.users.ReleaseStorage(ctx, userID, bytes)
}

func (s *Service) issue(user *User) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   int64(s.jwt.TTL().Seconds()),
	}, nil
}
