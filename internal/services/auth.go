package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

// AuthConfig holds the credential settings of AuthService.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// RegisterInput is the payload of a signup.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	OTP      string
}

// AuthService handles signup, login and password reset.
type AuthService struct {
	db    *gorm.DB
	users *store.Users
	otps  *store.OTPs
	otp   *OTPService
	cfg   AuthConfig
	lg    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, users *store.Users, otps *store.OTPs, otp *OTPService, cfg AuthConfig, lg *zap.Logger) *AuthService {
	return &AuthService{
		db:    db,
		users: users,
		otps:  otps,
		otp:   otp,
		cfg:   cfg,
		lg:    lg,
	}
}

// RequestSignupOTP issues a signup challenge for phone.
func (s *AuthService) RequestSignupOTP(ctx context.Context, phone string) (*IssuedOTP, error) {
	return s.otp.Request(ctx, strings.TrimSpace(phone))
}

// Register consumes the signup challenge, creates the user and returns a
// session token. The email check runs first so a conflict keeps the code.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.OTP = strings.TrimSpace(in.OTP)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" || in.OTP == "" {
		return "", ErrRegisterFields
	}
	if !ValidPhone(in.Phone) {
		return "", ErrInvalidPhone
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return "", errors.Wrap(err, "check email")
	}
	if taken {
		return "", ErrEmailTaken
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.otp.consume(ctx, s.otps.WithTx(tx), in.Phone, in.OTP); err != nil {
			return err
		}
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrEmailTaken
			}
			return errors.Wrap(err, "create user")
		}
		return nil
	})
	if errors.Is(err, ErrOTPExpired) {
		s.otp.Discard(ctx, in.Phone)
	}
	if err != nil {
		return "", err
	}

	s.lg.Info("User registered", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return s.issueToken(user)
}

// Login checks email and password and returns a session token. Unknown
// emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrLoginFields
	}

	user, err := s.users.ByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", ErrInvalidCredentials
	case err != nil:
		return "", errors.Wrap(err, "find user")
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(user)
}

// RequestPasswordReset issues a reset challenge for a registered phone.
func (s *AuthService) RequestPasswordReset(ctx context.Context, phone string) (*IssuedOTP, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if !ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	_, err := s.users.ByPhone(ctx, phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, errors.Wrap(err, "find user")
	}
	return s.otp.Request(ctx, phone)
}

// ResetPassword consumes the reset challenge and replaces the password of
// every account registered with phone.
func (s *AuthService) ResetPassword(ctx context.Context, phone, code, newPassword string) error {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" || newPassword == "" {
		return ErrResetFields
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	var updated int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.otp.consume(ctx, s.otps.WithTx(tx), phone, code); err != nil {
			return err
		}
		n, err := s.users.WithTx(tx).UpdatePasswordByPhone(ctx, phone, hash)
		if err != nil {
			return errors.Wrap(err, "update password")
		}
		if n == 0 {
			return ErrUserNotFound
		}
		updated = n
		return nil
	})
	switch {
	case errors.Is(err, ErrOTPExpired):
		s.otp.Discard(ctx, phone)
	case errors.Is(err, ErrOTPNotFound):
		return ErrResetOTPNotFound
	}
	if err != nil {
		return err
	}

	s.lg.Info("Password reset", zap.String("phone", phone), zap.Int64("accounts", updated))
	return nil
}

// ListUsers returns registered users newest first.
func (s *AuthService) ListUsers(ctx context.Context, page store.Page) ([]models.User, int64, error) {
	return s.users.List(ctx, page)
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	token, err := utils.GenerateToken(s.cfg.JWTSecret, user.ID, user.Email, s.cfg.TokenTTL)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}
