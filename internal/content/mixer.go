package content

import (
	"fmt"
	"math"
	"sort"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/station"
)

// Mix selects and orders items according to a content profile.
//
// Each category receives a quota of round(targetTotal * percent / 100) slots.
// Within a category, items rank by relevance descending, ties broken by the
// most recent publication time. The output concatenates categories in the
// order the profile declares them.
//
// A category with fewer items than its quota contributes what it has; the
// unused slots are not redistributed to other categories, so the result may
// be shorter than targetTotal. Fewer than minViable selected items fails the
// mix entirely.
func Mix(items []Item, profile station.ContentProfile, targetTotal, minViable int) ([]Item, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("content profile rejected: %w", err)
	}
	if targetTotal < 1 {
		return nil, fmt.Errorf("target total must be >= 1, got %d", targetTotal)
	}

	buckets := make(map[broadcast.Category][]Item)
	for _, item := range items {
		buckets[item.Category] = append(buckets[item.Category], item)
	}
	for _, bucket := range buckets {
		rank(bucket)
	}

	var mixed []Item
	for _, entry := range profile.Entries {
		quota := int(math.Round(float64(targetTotal) * float64(entry.Percent) / 100))
		if quota == 0 {
			continue
		}
		bucket := buckets[entry.Category]
		if len(bucket) > quota {
			bucket = bucket[:quota]
		}
		mixed = append(mixed, bucket...)
	}

	if len(mixed) < minViable {
		return nil, fmt.Errorf("%w: selected %d items, need at least %d",
			broadcast.ErrInsufficientContent, len(mixed), minViable)
	}
	return mixed, nil
}

// rank orders a category bucket by relevance descending, most recent first on
// equal relevance.
func rank(bucket []Item) {
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Relevance != bucket[j].Relevance {
			return bucket[i].Relevance > bucket[j].Relevance
		}
		return bucket[i].PublishedAt.After(bucket[j].PublishedAt)
	})
}

// DominantCategory returns the category contributing the most items to a mix,
// profile order breaking ties. Used to theme the cover art.
func DominantCategory(mixed []Item, profile station.ContentProfile) broadcast.Category {
	if len(mixed) == 0 {
		return broadcast.CategoryWorld
	}
	counts := make(map[broadcast.Category]int)
	for _, item := range mixed {
		counts[item.Category]++
	}
	best := mixed[0].Category
	bestCount := 0
	for _, entry := range profile.Entries {
		if counts[entry.Category] > bestCount {
			best = entry.Category
			bestCount = counts[entry.Category]
		}
	}
	return best
}
