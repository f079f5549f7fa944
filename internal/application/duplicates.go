package application

import (
	"sort"

	"github.com/ericfisherdev/pwaudit/internal/domain/model"
)

// FindDuplicates returns every password occurring more than once, with its
// count. Entries are ordered by descending count, ties by first occurrence in
// the input. The result is empty, never nil, when there are no duplicates.
func FindDuplicates(passwords []string) []model.Duplicate {
	counts := make(map[string]int, len(passwords))
	var order []string
	for _, p := range passwords {
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}

	dups := []model.Duplicate{}
	for _, p := range order {
		if n := counts[p]; n > 1 {
			dups = append(dups, model.Duplicate{Password: p, Count: n})
		}
	}

	// order is first-occurrence order, so a stable sort on count keeps ties
	// in that order.
	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Count > dups[j].Count
	})

	return dups
}
