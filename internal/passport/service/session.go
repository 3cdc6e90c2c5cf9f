package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"room-passport/internal/common/apperror"
	"room-passport/internal/passport/models"
	"room-passport/internal/passport/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// Session Manager
// ============================================================

type session struct {
	userID    string
	expiresAt time.Time
}

type SessionManager struct {
	mu     sync.Mutex
	tokens map[string]session // token -> session
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager: ttl <= 0 означает бессрочные токены.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		tokens: make(map[string]session),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *SessionManager) Issue(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := uuid.NewString()
	s := session{userID: userID}
	if m.ttl > 0 {
		s.expiresAt = m.now().Add(m.ttl)
	}
	m.tokens[token] = s
	return token
}

func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.tokens[token]
	if !ok {
		return "", false
	}
	if !s.expiresAt.IsZero() && m.now().After(s.expiresAt) {
		delete(m.tokens, token)
		return "", false
	}
	return s.userID, true
}

func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

// ============================================================
// Auth
// ============================================================

// AuthService только устанавливает личность пользователя по паролю или токену.
type AuthService struct {
	users    UserRepository
	sessions *SessionManager
}

func NewAuthService(users UserRepository, sessions *SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

func (a *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, apperror.Validation("email and password required")
	}

	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, apperror.Unauthorized("invalid credentials")
		}
		return "", nil, apperror.Internal("login failed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.Unauthorized("invalid credentials")
	}

	return a.sessions.Issue(user.ID), user, nil
}

// Identify возвращает пользователя по bearer-токену.
func (a *AuthService) Identify(ctx context.Context, token string) (*models.User, error) {
	userID, ok := a.sessions.Resolve(token)
	if !ok {
		return nil, apperror.Unauthorized("unauthorized")
	}
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			a.sessions.Revoke(token)
			return nil, apperror.Unauthorized("unauthorized")
		}
		return nil, apperror.Internal("identify user", err)
	}
	return user, nil
}
