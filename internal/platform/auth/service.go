package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tiffin-backend/internal/platform/db"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	minPasswordLen = 8
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalidLogin  = errors.New("authentication failed")
	ErrDisabled      = errors.New("account disabled")
	ErrInvalidInput  = errors.New("invalid input")
)

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	MemberID  *string   `json:"member_id,omitempty"`
}

func (s *Service) Login(ctx context.Context, id, password string) (*Token, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrInvalidLogin
	}
	if acct.IsDisabled {
		return nil, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}

	exp := s.now().Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  acct.ID,
		"role": acct.Role,
		"iat":  s.now().Unix(),
		"exp":  exp.Unix(),
	}
	if acct.MemberID != nil {
		claims["mid"] = *acct.MemberID
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Token{Token: signed, ExpiresAt: exp.UTC(), Role: acct.Role, MemberID: acct.MemberID}, nil
}

func (s *Service) Register(ctx context.Context, id, password, role string, memberID *string) error {
	id = strings.TrimSpace(id)
	if id == "" || len(password) < minPasswordLen {
		return fmt.Errorf("%w: id is required and password needs at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if role != RoleAdmin && role != RoleMember {
		return fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}
	if role == RoleMember && (memberID == nil || *memberID == "") {
		return fmt.Errorf("%w: member accounts need member_id", ErrInvalidInput)
	}

	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = s.store.Create(ctx, &Account{
		ID:           id,
		PasswordHash: string(hash),
		Role:         role,
		MemberID:     memberID,
	})
	if db.IsDuplicateKey(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account on first start.
func (s *Service) EnsureAdmin(ctx context.Context, id, password string) error {
	if id == "" || password == "" {
		return nil
	}
	err := s.Register(ctx, id, password, RoleAdmin, nil)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	if err == nil {
		slog.Info("bootstrap admin account created", "id", id)
	}
	return err
}
