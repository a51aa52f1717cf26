// Package catalog groups photo records by country and capture year.
package catalog

import (
	"sort"
	"strconv"

	"github.com/bstardust/photo-atlas/pkg/models"
)

// Catalog maps a group key to the records of that group in discovery order
type Catalog map[string][]models.PhotoRecord

// Key returns the group key for a country and year. The two parts are
// concatenated without a separator, so "France"+123 and "France1"+23 share a
// key.
func Key(country string, year uint16) string {
	return country + strconv.Itoa(int(year))
}

// Len returns the number of records across all groups
func (c Catalog) Len() int {
	n := 0
	for _, group := range c {
		n += len(group)
	}
	return n
}

// Keys returns the group keys in lexical order
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder folds records into a new Catalog
type Builder struct {
	catalog Catalog
	skipped int
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{catalog: make(Catalog)}
}

// Add appends rec to its group. Records without a resolved country or a
// valid capture date are not added and Add returns false.
func (b *Builder) Add(rec models.PhotoRecord) bool {
	if rec.Country == nil || rec.Country.Name == "" || !rec.Date.Valid() {
		b.skipped++
		return false
	}

	key := Key(rec.Country.Name, rec.Date.Year)
	b.catalog[key] = append(b.catalog[key], rec)
	return true
}

// Skipped returns how many records Add rejected
func (b *Builder) Skipped() int {
	return b.skipped
}

// Catalog returns the catalog built so far
func (b *Builder) Catalog() Catalog {
	return b.catalog
}

// Build folds records into a catalog, skipping unresolved ones
func Build(records []models.PhotoRecord) Catalog {
	b := NewBuilder()
	for _, rec := range records {
		b.Add(rec)
	}
	return b.Catalog()
}
