package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kashmau/track-fitness/internal/model"
	q "github.com/kashmau/track-fitness/internal/queue"
	"github.com/kashmau/track-fitness/internal/repository"
)

// memCredentials mimics the users table including its unique email key.
type memCredentials struct {
	mu      sync.Mutex
	byEmail map[string]model.Credential
}

func newMemCredentials() *memCredentials {
	return &memCredentials{byEmail: map[string]model.Credential{}}
}

func (m *memCredentials) Create(_ context.Context, c model.Credential) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Email = repository.NormalizeEmail(c.Email)
	if _, ok := m.byEmail[c.Email]; ok {
		return model.Credential{}, repository.ErrEmailExists
	}
	c.ID = uuid.NewString()
	if c.Role == "" {
		c.Role = model.RoleUser
	}
	m.byEmail[c.Email] = c
	return c, nil
}

func (m *memCredentials) GetByEmail(_ context.Context, email string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return model.Credential{}, repository.ErrNotFound
	}
	return c, nil
}

func (m *memCredentials) GetByID(_ context.Context, id string) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Credential{}, repository.ErrNotFound
}

func (m *memCredentials) set(c model.Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.byEmail {
		if v.ID == c.ID {
			delete(m.byEmail, k)
		}
	}
	m.byEmail[c.Email] = c
}

func (m *memCredentials) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

// memTokens keeps one row per user, like UNIQUE(user_id) plus the upsert.
type memTokens struct {
	mu     sync.Mutex
	byUser map[string]model.RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{byUser: map[string]model.RefreshToken{}} }

func (m *memTokens) Rotate(_ context.Context, userID, hash string, exp time.Time) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt := model.RefreshToken{ID: uuid.NewString(), UserID: userID, TokenHash: hash, ExpiresAt: exp}
	m.byUser[userID] = rt
	return rt, nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.byUser {
		if rt.TokenHash == hash {
			return rt, nil
		}
	}
	return model.RefreshToken{}, repository.ErrNotFound
}

func (m *memTokens) DeleteByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for u, rt := range m.byUser {
		if rt.TokenHash == hash {
			delete(m.byUser, u)
		}
	}
	return nil
}

func (m *memTokens) DeleteForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
	return nil
}

func (m *memTokens) rowsFor(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[userID]; ok {
		return 1
	}
	return 0
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.AuthEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev q.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// testClock is a settable time source shared by the service and its issuer.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
