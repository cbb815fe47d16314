package nixbase

import (
	"sort"
	"strings"
)

// CompareNamed orders named entities by name, breaking ties by id.
// Errors reading either side sort that side first.
func CompareNamed(a, b INamedEntity) int {
	an, aerr := a.Name()
	bn, berr := b.Name()
	switch {
	case aerr != nil && berr != nil:
		return 0
	case aerr != nil:
		return -1
	case berr != nil:
		return 1
	}
	if c := strings.Compare(an, bn); c != 0 {
		return c
	}
	aid, _ := a.ID()
	bid, _ := b.ID()
	return strings.Compare(aid, bid)
}

// SortNamed sorts entities in place with CompareNamed.
func SortNamed(entities []INamedEntity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return CompareNamed(entities[i], entities[j]) < 0
	})
}

// SameEntity compares identity, not handle address: two handles are
// the same entity when they share both location and id.
func SameEntity(a, b IEntity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Location() != b.Location() {
		return false
	}
	aid, aerr := a.ID()
	bid, berr := b.ID()
	return aerr == nil && berr == nil && aid == bid
}
