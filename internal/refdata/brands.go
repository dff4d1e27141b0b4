package refdata

import (
	"sort"
	"strings"
)

// DefaultBrands is the built-in recognized-brand reference list, used
// when no external list is configured or loading one fails.
var DefaultBrands = []string{
	"Apple", "Samsung", "Dell", "HP", "Sony", "LG", "Microsoft",
	"Google", "Xiaomi", "Huawei", "OnePlus", "Oppo", "Vivo",
	"Canon", "Nikon", "JBL", "Bose", "Logitech", "Generic",
}

// BrandSet is a case-insensitive set of recognized brand names. It is
// read-only after construction, so no locking is needed.
type BrandSet struct {
	canonical []string
	lookup    map[string]string
}

// NewBrandSet builds a BrandSet from the given names, preserving the
// given order for suggestion lists.
func NewBrandSet(names []string) *BrandSet {
	s := &BrandSet{
		canonical: make([]string, 0, len(names)),
		lookup:    make(map[string]string, len(names)),
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := s.lookup[key]; dup {
			continue
		}
		s.lookup[key] = name
		s.canonical = append(s.canonical, name)
	}
	return s
}

// Contains reports whether the brand is recognized, ignoring case.
func (s *BrandSet) Contains(brand string) bool {
	_, ok := s.lookup[strings.ToLower(strings.TrimSpace(brand))]
	return ok
}

// Canonical returns the reference capitalization for a recognized
// brand, or the empty string if the brand is unknown.
func (s *BrandSet) Canonical(brand string) string {
	return s.lookup[strings.ToLower(strings.TrimSpace(brand))]
}

// Suggestions returns up to n brand names for "did you mean" prompts.
func (s *BrandSet) Suggestions(n int) []string {
	if n > len(s.canonical) {
		n = len(s.canonical)
	}
	out := make([]string, n)
	copy(out, s.canonical[:n])
	return out
}

// Size returns the number of brands in the set.
func (s *BrandSet) Size() int {
	return len(s.canonical)
}

// Names returns all brand names sorted alphabetically.
func (s *BrandSet) Names() []string {
	out := make([]string, len(s.canonical))
	copy(out, s.canonical)
	sort.Strings(out)
	return out
}
