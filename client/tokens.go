package client

import (
	"sync"

	"luxvision/models"
)

// TokenStore holds the token pair of the signed-in user.
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(models.TokenPair) error
	ClearTokens() error
}

// MemoryTokens keeps tokens for the life of the process.
type MemoryTokens struct {
	mu   sync.RWMutex
	pair models.TokenPair
}

func (m *MemoryTokens) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.AccessToken
}

func (m *MemoryTokens) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.RefreshToken
}

func (m *MemoryTokens) SetTokens(p models.TokenPair) error {
	m.mu.Lock()
	m.pair = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) ClearTokens() error {
	return m.SetTokens(models.TokenPair{})
}
