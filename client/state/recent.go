package state

import (
	"sync"

	"luxvision/models"
)

// MaxRecentlyViewed bounds the recently viewed list.
const MaxRecentlyViewed = 8

// RecentlyViewed is the list of the last products a shopper opened, most
// recent first.
type RecentlyViewed struct {
	mu       sync.Mutex
	storage  Storage
	products []models.Product
}

// NewRecentlyViewed returns the list saved in storage.
func NewRecentlyViewed(storage Storage) *RecentlyViewed {
	r := &RecentlyViewed{storage: storage}
	loadJSON(storage, KeyRecentlyViewed, &r.products)
	if len(r.products) > MaxRecentlyViewed {
		r.products = r.products[:MaxRecentlyViewed]
	}
	return r
}

// Add moves p to the front of the list.
func (r *RecentlyViewed) Add(p models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]models.Product, 0, MaxRecentlyViewed)
	list = append(list, p)
	for _, old := range r.products {
		if len(list) == MaxRecentlyViewed {
			break
		}
		if old.ID != p.ID {
			list = append(list, old)
		}
	}
	r.products = list
	return saveJSON(r.storage, KeyRecentlyViewed, r.products)
}

// Products returns the list, most recent first.
func (r *RecentlyViewed) Products() []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Product(nil), r.products...)
}

// Clear empties the list.
func (r *RecentlyViewed) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = nil
	return saveJSON(r.storage, KeyRecentlyViewed, []models.Product{})
}
