package state

import (
	"context"
	"sync"

	"luxvision/client"
	"luxvision/models"
)

// AuthAPI is the part of the API client used by Session.
type AuthAPI interface {
	Register(ctx context.Context, in client.RegisterInput) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	Tokens() client.TokenStore
}

// Observer is told about every identity change. u is nil once signed out.
type Observer func(ctx context.Context, u *models.User)

// Session tracks the signed-in user.
type Session struct {
	api AuthAPI

	mu        sync.RWMutex
	user      *models.User
	observers []Observer
}

// NewSession returns a signed-out session.
func NewSession(api AuthAPI) *Session {
	return &Session{api: api}
}

// Subscribe registers o for identity changes.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// User returns the signed-in user or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// IsAdmin reports whether the signed-in user may use the back office.
func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Role.IsAdmin()
}

func (s *Session) setUser(ctx context.Context, u *models.User) {
	s.mu.Lock()
	s.user = u
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o(ctx, u)
	}
}

// Init restores the session of a saved access token. Tokens the API refuses
// are cleared.
func (s *Session) Init(ctx context.Context) error {
	if s.api.Tokens().AccessToken() == "" {
		s.setUser(ctx, nil)
		return nil
	}
	u, err := s.api.Me(ctx)
	if err != nil {
		_ = s.api.Tokens().ClearTokens()
		s.setUser(ctx, nil)
		return err
	}
	s.setUser(ctx, u)
	return nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setUser(ctx, res.User)
	return res.User, nil
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, in client.RegisterInput) (*models.User, error) {
	res, err := s.api.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.setUser(ctx, res.User)
	return res.User, nil
}

// Logout signs out. The session ends even when the API call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.setUser(ctx, nil)
	return err
}

// Expire ends the session after the API client could not refresh it. It is
// meant for client.WithSessionExpired.
func (s *Session) Expire() {
	if s.IsAuthenticated() {
		s.setUser(context.Background(), nil)
	}
}

// Store bundles the client state of one shopper.
type Store struct {
	Session        *Session
	Cart           *Cart
	Wishlist       *Wishlist
	RecentlyViewed *RecentlyViewed
}

// API is everything the client state needs from the API client.
type API interface {
	AuthAPI
	CartAPI
	WishlistAPI
}

// New wires a Store over api and storage. Cart and wishlist follow the
// session identity.
func New(api API, storage Storage, notify Notifier) *Store {
	st := &Store{
		Session:        NewSession(api),
		Cart:           NewCart(api, storage, notify),
		Wishlist:       NewWishlist(api, storage, notify),
		RecentlyViewed: NewRecentlyViewed(storage),
	}
	st.Session.Subscribe(st.Cart.SetUser)
	st.Session.Subscribe(st.Wishlist.SetUser)
	return st
}
