package geo

import (
	"sync"

	"github.com/bstardust/photo-atlas/pkg/common"
	"github.com/bstardust/photo-atlas/pkg/models"
)

// distance is the squared Euclidean distance in degree space
func distance(a, b models.Location) float64 {
	dLat := float64(a.Lat) - float64(b.Lat)
	dLng := float64(a.Lng) - float64(b.Lng)
	return dLat*dLat + dLng*dLng
}

// Nearest returns the reference entry closest to query. On equal distances
// the entry seen last wins. It panics if reference is empty.
func Nearest(query models.Location, reference []models.Country) models.Country {
	if len(reference) == 0 {
		panic("geo: nearest country lookup on an empty reference list")
	}

	best := 0
	bestDist := distance(query, reference[0].Location)
	for i := 1; i < len(reference); i++ {
		if d := distance(query, reference[i].Location); d <= bestDist {
			best = i
			bestDist = d
		}
	}

	return reference[best]
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMemo caches the result for every distinct query coordinate
func WithMemo() Option {
	return func(r *Resolver) {
		r.memo = make(map[models.Location]models.Country)
	}
}

// Resolver maps coordinates to the nearest reference country. It is safe for
// concurrent use.
type Resolver struct {
	countries []models.Country

	mu   sync.RWMutex
	memo map[models.Location]models.Country
}

// NewResolver creates a resolver over a copy of countries
func NewResolver(countries []models.Country, opts ...Option) (*Resolver, error) {
	if len(countries) == 0 {
		return nil, common.NewConfigError("reference country list is empty", nil)
	}

	r := &Resolver{
		countries: append([]models.Country(nil), countries...),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Resolve returns the country closest to loc
func (r *Resolver) Resolve(loc models.Location) models.Country {
	if r.memo == nil {
		return Nearest(loc, r.countries)
	}

	r.mu.RLock()
	c, ok := r.memo[loc]
	r.mu.RUnlock()
	if ok {
		return c
	}

	c = Nearest(loc, r.countries)

	r.mu.Lock()
	r.memo[loc] = c
	r.mu.Unlock()

	return c
}

// Len returns the size of the reference list
func (r *Resolver) Len() int {
	return len(r.countries)
}
