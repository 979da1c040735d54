package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/store"
)

const testSecret = "test-secret"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (s *recordingSender) SendCode(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[phone] = code
	return nil
}

func (s *recordingSender) last(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

var errSenderDown = errors.New("gateway down")

type env struct {
	db     *gorm.DB
	users  *store.Users
	otps   *store.OTPs
	clock  *clock
	sender *recordingSender
	otp    *OTPService
	auth   *AuthService
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "services.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newEnv(t *testing.T, demo bool) *env {
	t.Helper()
	e := &env{
		db:     openTestDB(t),
		clock:  newClock(),
		sender: &recordingSender{},
	}
	e.users = store.NewUsers(e.db)
	e.otps = store.NewOTPs(e.db)
	e.otp = NewOTPService(e.otps, e.sender, 5*time.Minute, demo, zap.NewNop(), WithClock(e.clock.Now))
	e.auth = NewAuthService(e.db, e.users, e.otps, e.otp, AuthConfig{
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, zap.NewNop())
	return e
}

func (e *env) requestCode(t *testing.T, phone string) string {
	t.Helper()
	issued, err := e.otp.Request(context.Background(), phone)
	require.NoError(t, err)
	if issued.Code != "" {
		return issued.Code
	}
	return e.sender.last(phone)
}
