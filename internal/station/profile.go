package station

import (
	"fmt"

	"github.com/aircast-dev/aircast/internal/broadcast"
)

// ProfileEntry is one category share of a content profile.
type ProfileEntry struct {
	Category broadcast.Category `yaml:"category"`
	Percent  int                `yaml:"percent"`
}

// ContentProfile declares the percentage mix of a broadcast. Entry order is
// the priority order: the mixer emits categories in the order they are
// declared here.
type ContentProfile struct {
	Name    string         `yaml:"name"`
	Entries []ProfileEntry `yaml:"entries"`
}

// Validate checks category names, percent ranges, duplicates, and that the
// shares sum to exactly 100.
func (p ContentProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("profile %s: no entries", p.Name)
	}
	seen := make(map[broadcast.Category]bool, len(p.Entries))
	total := 0
	for _, e := range p.Entries {
		if !broadcast.KnownCategory(e.Category) {
			return fmt.Errorf("profile %s: unknown category %q", p.Name, e.Category)
		}
		if seen[e.Category] {
			return fmt.Errorf("profile %s: duplicate category %q", p.Name, e.Category)
		}
		seen[e.Category] = true
		if e.Percent <= 0 || e.Percent > 100 {
			return fmt.Errorf("profile %s: category %q percent %d out of range", p.Name, e.Category, e.Percent)
		}
		total += e.Percent
	}
	if total != 100 {
		return fmt.Errorf("profile %s: percentages sum to %d, want 100", p.Name, total)
	}
	return nil
}

// BuiltinProfiles returns the stock content mixes.
func BuiltinProfiles() map[string]ContentProfile {
	profiles := []ContentProfile{
		{
			Name: "bitcoin_focus",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryBitcoin, Percent: 50},
				{Category: broadcast.CategoryMarkets, Percent: 25},
				{Category: broadcast.CategoryTechnology, Percent: 15},
				{Category: broadcast.CategoryWorld, Percent: 10},
			},
		},
		{
			Name: "balanced_news",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryWorld, Percent: 20},
				{Category: broadcast.CategoryLocal, Percent: 20},
				{Category: broadcast.CategoryMarkets, Percent: 20},
				{Category: broadcast.CategoryTechnology, Percent: 15},
				{Category: broadcast.CategorySport, Percent: 10},
				{Category: broadcast.CategoryEntertainment, Percent: 5},
				{Category: broadcast.CategoryScience, Percent: 5},
				{Category: broadcast.CategoryWeather, Percent: 5},
			},
		},
		{
			Name: "business_focus",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryMarkets, Percent: 40},
				{Category: broadcast.CategoryWorld, Percent: 25},
				{Category: broadcast.CategoryBitcoin, Percent: 15},
				{Category: broadcast.CategoryTechnology, Percent: 10},
				{Category: broadcast.CategoryLocal, Percent: 10},
			},
		},
		{
			Name: "swiss_local",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryLocal, Percent: 40},
				{Category: broadcast.CategoryWorld, Percent: 20},
				{Category: broadcast.CategorySport, Percent: 15},
				{Category: broadcast.CategoryWeather, Percent: 15},
				{Category: broadcast.CategoryEntertainment, Percent: 10},
			},
		},
		{
			Name: "tech_focus",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryTechnology, Percent: 45},
				{Category: broadcast.CategoryBitcoin, Percent: 20},
				{Category: broadcast.CategoryScience, Percent: 20},
				{Category: broadcast.CategoryWorld, Percent: 15},
			},
		},
		{
			Name: "entertainment",
			Entries: []ProfileEntry{
				{Category: broadcast.CategoryEntertainment, Percent: 35},
				{Category: broadcast.CategorySport, Percent: 25},
				{Category: broadcast.CategoryLocal, Percent: 20},
				{Category: broadcast.CategoryTechnology, Percent: 10},
				{Category: broadcast.CategoryScience, Percent: 10},
			},
		},
	}

	out := make(map[string]ContentProfile, len(profiles))
	for _, p := range profiles {
		out[p.Name] = p
	}
	return out
}
