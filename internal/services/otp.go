package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/store"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether phone is exactly ten ASCII digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// CodeSender delivers a one-time code to a phone number out of band.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// IssuedOTP describes a freshly issued challenge. Code is only filled in
// demo mode.
type IssuedOTP struct {
	Code      string
	ExpiresAt time.Time
}

// OTPService issues and verifies one-time codes bound to phone numbers.
type OTPService struct {
	otps   *store.OTPs
	sender CodeSender
	ttl    time.Duration
	demo   bool
	now    func() time.Time
	lg     *zap.Logger
}

// OTPOption customizes an OTPService.
type OTPOption func(*OTPService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) OTPOption {
	return func(s *OTPService) { s.now = now }
}

// NewOTPService constructs an OTPService. In demo mode codes are returned to
// the caller and logged instead of being handed to sender.
func NewOTPService(otps *store.OTPs, sender CodeSender, ttl time.Duration, demo bool, lg *zap.Logger, opts ...OTPOption) *OTPService {
	s := &OTPService{
		otps:   otps,
		sender: sender,
		ttl:    ttl,
		demo:   demo,
		now:    time.Now,
		lg:     lg,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Request replaces any challenge for phone with a new six digit code.
func (s *OTPService) Request(ctx context.Context, phone string) (*IssuedOTP, error) {
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if !ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	code, err := generateCode()
	if err != nil {
		return nil, errors.Wrap(err, "generate code")
	}

	now := s.now()
	ch := &models.OTPChallenge{
		Phone:     phone,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.otps.Upsert(ctx, ch); err != nil {
		return nil, errors.Wrap(err, "store challenge")
	}

	issued := &IssuedOTP{ExpiresAt: ch.ExpiresAt}
	if s.demo {
		s.lg.Info("Demo OTP issued", zap.String("phone", phone), zap.String("code", code))
		issued.Code = code
		return issued, nil
	}

	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		s.lg.Error("OTP delivery failed", zap.String("phone", phone), zap.Error(err))
		return nil, ErrOTPDeliveryFailed
	}
	return issued, nil
}

// Verify checks code against the challenge for phone and consumes it on
// success. An expired challenge is purged and a mismatch leaves it in place.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	err := s.consume(ctx, s.otps, phone, code)
	if errors.Is(err, ErrOTPExpired) {
		s.Discard(ctx, phone)
	}
	return err
}

// Discard removes the challenge for phone. Failures are only logged.
func (s *OTPService) Discard(ctx context.Context, phone string) {
	if err := s.otps.Delete(ctx, phone); err != nil {
		s.lg.Warn("Failed to purge OTP", zap.String("phone", phone), zap.Error(err))
	}
}

// consume verifies and deletes through otps, which may be bound to a
// transaction. Expired challenges are left for the caller to purge.
func (s *OTPService) consume(ctx context.Context, otps *store.OTPs, phone, code string) error {
	ch, err := otps.Get(ctx, phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrOTPNotFound
	case err != nil:
		return errors.Wrap(err, "load challenge")
	}

	if ch.Expired(s.now()) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return ErrOTPMismatch
	}
	if err := otps.Delete(ctx, phone); err != nil {
		return errors.Wrap(err, "delete challenge")
	}
	return nil
}

var codeSpan = big.NewInt(900000)

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
