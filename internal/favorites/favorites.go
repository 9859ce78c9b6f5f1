package favorites

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/model"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/internal/session"
)

// API is the slice of the REST client the favorites store needs.
type API interface {
	Favorites(ctx context.Context, limit, offset int) ([]model.FavoriteProduct, error)
	AddFavorite(ctx context.Context, productID int) (*model.FavoriteProduct, error)
	RemoveFavorite(ctx context.Context, productID int) error
}

// Store holds the user's favorites list. Unlike the cart it is not written
// to local persistence: the server copy is authoritative and the list is
// fetched per session. Mutations apply only after the server acknowledges.
type Store struct {
	mu      sync.Mutex
	session *session.Session
	api     API
	sink    notify.Sink
	items   []model.FavoriteProduct
}

func NewStore(sess *session.Session, api API, sink notify.Sink) *Store {
	return &Store{session: sess, api: api, sink: sink}
}

// Refresh replaces the list with the server's copy. Without a token the list
// is simply empty and no request is made. A fetch failure keeps the current
// list and returns the error.
func (s *Store) Refresh(ctx context.Context, limit, offset int) error {
	if !s.session.HasToken() {
		s.mu.Lock()
		s.items = nil
		s.mu.Unlock()
		return nil
	}

	items, err := s.api.Favorites(ctx, limit, offset)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Add puts a product on the list. The entry the server stored is appended.
func (s *Store) Add(ctx context.Context, productID int) error {
	favorite, err := s.api.AddFavorite(ctx, productID)
	if err != nil {
		s.sink.Warning(err.Error())
		return err
	}

	s.mu.Lock()
	s.items = append(s.items, *favorite)
	s.mu.Unlock()
	return nil
}

// Remove takes a product off the list.
func (s *Store) Remove(ctx context.Context, productID int) error {
	if err := s.api.RemoveFavorite(ctx, productID); err != nil {
		s.sink.Warning(err.Error())
		return err
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, f := range s.items {
		if f.ID != productID {
			kept = append(kept, f)
		}
	}
	s.items = kept
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the list in server order.
func (s *Store) Items() []model.FavoriteProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FavoriteProduct, len(s.items))
	copy(out, s.items)
	return out
}

// IsFavorite reports whether productID is on the list.
func (s *Store) IsFavorite(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.items {
		if f.ID == productID {
			return true
		}
	}
	return false
}

// Len returns the list size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Reset drops the list. Registered as a session teardown callback.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
