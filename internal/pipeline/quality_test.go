package pipeline

import (
	"testing"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/content"
)

func TestQualityScore(t *testing.T) {
	cases := []struct {
		name  string
		items []content.Item
		want  float64
	}{
		{
			name: "full mix with both bonuses",
			items: []content.Item{
				{Category: broadcast.CategoryBitcoin, Relevance: 0.9},
				{Category: broadcast.CategoryMarkets, Relevance: 0.8},
				{Category: broadcast.CategoryLocal, Relevance: 0.6},
				{Category: broadcast.CategoryWeather, Relevance: 1},
			},
			want: 0.85,
		},
		{
			name: "no bonus categories",
			items: []content.Item{
				{Category: broadcast.CategoryWorld, Relevance: 0.5},
				{Category: broadcast.CategoryWorld, Relevance: 0.5},
			},
			want: 0.28,
		},
		{
			name: "bitcoin and markets share one bonus",
			items: []content.Item{
				{Category: broadcast.CategoryBitcoin, Relevance: 0.5},
				{Category: broadcast.CategoryMarkets, Relevance: 0.5},
			},
			want: 0.57,
		},
		{
			name: "weather bonus only",
			items: []content.Item{
				{Category: broadcast.CategoryWorld, Relevance: 0.5},
				{Category: broadcast.CategoryWeather, Relevance: 1},
			},
			want: 0.64,
		},
		{
			name:  "empty mix",
			items: nil,
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := qualityScore(tc.items); got != tc.want {
				t.Fatalf("qualityScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQualityScoreNeverExceedsOne(t *testing.T) {
	items := []content.Item{
		{Category: broadcast.CategoryLocal, Relevance: 1},
		{Category: broadcast.CategoryWeather, Relevance: 1},
		{Category: broadcast.CategoryBitcoin, Relevance: 1},
		{Category: broadcast.CategoryMarkets, Relevance: 1},
		{Category: broadcast.CategoryWorld, Relevance: 1},
	}
	if got := qualityScore(items); got > 1 {
		t.Fatalf("qualityScore = %v, must stay <= 1", got)
	}
}
