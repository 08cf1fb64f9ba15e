package mockbackend

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already registered")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
)

// maxLoginAttempts is the number of failed logins after which a username is locked.
const maxLoginAttempts = 5

type user struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore keeps registered users and their failed login counts in memory.
type UserStore struct {
	users         map[string]user
	loginAttempts map[string]int
	mu            sync.RWMutex
	cost          int
}

// NewUserStore creates an empty store hashing with bcrypt's default cost.
func NewUserStore() *UserStore {
	return &UserStore{
		users:         make(map[string]user),
		loginAttempts: make(map[string]int),
		cost:          bcrypt.DefaultCost,
	}
}

// SetHashCost changes the bcrypt cost for new passwords.
func (s *UserStore) SetHashCost(cost int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cost = cost
}

// Register provisions a new user with a hashed password. Only presence of
// both fields is checked here; the signup handler applies the form rules.
func (s *UserStore) Register(creds domain.Credentials) error {
	if err := creds.RequireFields(); err != nil {
		return err
	}
	name := strings.TrimSpace(creds.Username)

	s.mu.RLock()
	_, exists := s.users[name]
	cost := s.cost
	s.mu.RUnlock()
	if exists {
		return ErrUserExists
	}

	hash, err := s.hashPassword(creds.Password, cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[name]; exists {
		return ErrUserExists
	}
	s.users[name] = user{
		ID:           uuid.New().String(),
		Username:     name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	return nil
}

// Authenticate checks credentials. Unknown users and wrong passwords give the
// same error.
func (s *UserStore) Authenticate(creds domain.Credentials) error {
	name := strings.TrimSpace(creds.Username)
	if err := s.checkRateLimit(name); err != nil {
		return err
	}

	s.mu.RLock()
	u, ok := s.users[name]
	s.mu.RUnlock()
	if !ok {
		s.incrementAttempts(name)
		return ErrInvalidCredentials // Generic error to avoid enumeration
	}

	if err := s.verifyPassword(u.PasswordHash, creds.Password); err != nil {
		s.incrementAttempts(name)
		return ErrInvalidCredentials
	}

	s.resetAttempts(name)
	return nil
}

// Exists reports whether a username is registered.
func (s *UserStore) Exists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// Private helpers

func (s *UserStore) checkRateLimit(username string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loginAttempts[username] >= maxLoginAttempts {
		return ErrRateLimitExceeded
	}
	return nil
}

func (s *UserStore) incrementAttempts(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginAttempts[username]++
}

func (s *UserStore) resetAttempts(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.loginAttempts, username)
}

func (s *UserStore) verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *UserStore) hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
