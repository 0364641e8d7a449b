// Package otp issues and verifies emailed one-time login codes.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/wildcat/internal/model"
)

var (
	ErrInvalidCode      = errors.New("invalid login code")
	ErrExpiredCode      = errors.New("login code has expired, request a new one")
	ErrTooManyRequests  = errors.New("please wait before requesting another code")
	ErrTooManyAttempts  = errors.New("too many attempts, request a new code")
	ErrDomainNotAllowed = errors.New("email domain not allowed")
)

// CodeDigits is the length of generated codes.
const CodeDigits = 6

// MaxCodeLength is the longest code input accepted before it is rejected outright.
const MaxCodeLength = 8

// Store persists pending codes. Get returns nil, nil when no code is pending.
type Store interface {
	Save(ctx context.Context, c *model.LoginCode) error
	Get(ctx context.Context, email string) (*model.LoginCode, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

// Mailer delivers a code to the user.
type Mailer interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

// Options configures a Service. Zero values take the defaults.
type Options struct {
	Domain      string
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
	HashCost    int
}

// Service issues codes for an email domain and checks them.
type Service struct {
	store  Store
	mailer Mailer
	opts   Options
	now    func() time.Time
}

// NewService returns a Service backed by store and mailer.
func NewService(store Store, mailer Mailer, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = 0
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Service{store: store, mailer: mailer, opts: opts, now: time.Now}
}

// Domain returns the email domain codes are issued for.
func (s *Service) Domain() string { return s.opts.Domain }

// CheckEmail normalizes email and verifies it belongs to the allowed domain.
func (s *Service) CheckEmail(email string) (string, error) {
	email = model.NormalizeEmail(email)
	if !strings.Contains(email, "@") || !model.EmailInDomain(email, s.opts.Domain) {
		return "", ErrDomainNotAllowed
	}
	return email, nil
}

// RequestCode generates a code for email, stores its hash and mails it.
// A code reissued within the cooldown is refused with ErrTooManyRequests.
func (s *Service) RequestCode(ctx context.Context, email string) (string, error) {
	email, err := s.CheckEmail(email)
	if err != nil {
		return "", err
	}

	now := s.now()
	existing, err := s.store.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil && now.Sub(existing.IssuedAt) < s.opts.Cooldown {
		return "", ErrTooManyRequests
	}

	code, err := randomCode(CodeDigits)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.HashCost)
	if err != nil {
		return "", fmt.Errorf("hashing code: %w", err)
	}

	err = s.store.Save(ctx, &model.LoginCode{
		Email:     email,
		CodeHash:  string(hash),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.opts.TTL),
	})
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendCode(ctx, email, code, s.opts.TTL); err != nil {
		// The code is useless if the user never sees it.
		if delErr := s.store.Delete(ctx, email); delErr != nil {
			slog.Warn("failed to discard undelivered code", "email", email, "error", delErr)
		}
		return "", fmt.Errorf("sending code: %w", err)
	}

	return email, nil
}

// VerifyCode checks code against the pending code for email and consumes it on success.
// It returns the normalized email.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (string, error) {
	email = model.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if code == "" || len(code) > MaxCodeLength {
		return "", ErrInvalidCode
	}

	pending, err := s.store.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if pending == nil {
		return "", ErrInvalidCode
	}
	if pending.Expired(s.now()) {
		if err := s.store.Delete(ctx, email); err != nil {
			return "", err
		}
		return "", ErrExpiredCode
	}
	if pending.Attempts >= s.opts.MaxAttempts {
		if err := s.store.Delete(ctx, email); err != nil {
			return "", err
		}
		return "", ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(code)) != nil {
		attempts, err := s.store.IncrementAttempts(ctx, email)
		if err != nil {
			return "", err
		}
		if attempts >= s.opts.MaxAttempts {
			if err := s.store.Delete(ctx, email); err != nil {
				return "", err
			}
			return "", ErrTooManyAttempts
		}
		return "", ErrInvalidCode
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return "", err
	}
	return email, nil
}

func randomCode(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
