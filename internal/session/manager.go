package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dummyshop/storefront/internal/domain"
	"dummyshop/storefront/internal/storage"
)

const DefaultKey = "tanstack.auth.user"

var ErrInvalidUser = errors.New("invalid user record")

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Manager owns the current user and mirrors it into a single storage key.
// The in-memory copy only changes after the storage write succeeds.
type Manager struct {
	store storage.Store
	key   string
	log   *zap.Logger

	mu   sync.RWMutex
	user *domain.User
}

func NewManager(store storage.Store, key string, log *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, key: key, log: log}, nil
}

// Restore loads the persisted user. A missing entry leaves the session
// anonymous. An entry that does not decode into a valid user is logged,
// removed, and also leaves the session anonymous. Only storage I/O failures
// are returned.
func (m *Manager) Restore(ctx context.Context) error {
	raw, found, err := m.store.Get(ctx, m.key)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !found || len(raw) == 0 {
		m.user = nil
		return nil
	}

	u, err := decodeUser(raw)
	if err != nil {
		m.log.Warn("discarding malformed stored session", zap.String("key", m.key), zap.Error(err))
		m.user = nil
		if err := m.store.Delete(ctx, m.key); err != nil {
			return fmt.Errorf("remove malformed session: %w", err)
		}
		return nil
	}
	m.user = &u
	m.log.Debug("session restored", zap.Int("user_id", u.ID), zap.String("username", u.Username))
	return nil
}

// Login stores u as the current user, replacing any previous one.
func (m *Manager) Login(ctx context.Context, u domain.User) error {
	if err := Validate(u); err != nil {
		return err
	}
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, m.key, b); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	m.user = &u
	m.log.Info("session login", zap.Int("user_id", u.ID), zap.String("username", u.Username))
	return nil
}

// Logout removes the stored user. Calling it while anonymous is a no-op
// apart from the storage delete.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if m.user != nil {
		m.log.Info("session logout", zap.Int("user_id", m.user.ID))
	}
	m.user = nil
	return nil
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) State() State {
	if m.IsAuthenticated() {
		return Authenticated
	}
	return Anonymous
}

func (m *Manager) User() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

// Validate is the shape check applied to user records before they are
// trusted, both from the remote API and from storage.
func Validate(u domain.User) error {
	if u.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidUser)
	}
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidUser)
	}
	return nil
}

func decodeUser(raw []byte) (domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return domain.User{}, fmt.Errorf("decode session: %w", err)
	}
	if err := Validate(u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
