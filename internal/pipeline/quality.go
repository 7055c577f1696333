package pipeline

import (
	"math"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/content"
)

// qualityScore rates the mixed content on a 0..1 scale: category diversity,
// mean relevance, and local share make up the news part; weather and market
// context each add a fixed bonus.
func qualityScore(items []content.Item) float64 {
	if len(items) == 0 {
		return 0
	}

	seen := make(map[broadcast.Category]struct{}, len(items))
	var relevanceSum float64
	locals := 0
	hasWeather := false
	hasMarkets := false
	for _, item := range items {
		seen[item.Category] = struct{}{}
		relevanceSum += item.Relevance
		switch item.Category {
		case broadcast.CategoryLocal:
			locals++
		case broadcast.CategoryWeather:
			hasWeather = true
		case broadcast.CategoryBitcoin, broadcast.CategoryMarkets:
			hasMarkets = true
		}
	}

	diversity := float64(len(seen)) / float64(len(items))
	meanRelevance := relevanceSum / float64(len(items))
	localRatio := float64(locals) / float64(len(items))

	score := (diversity*0.4 + meanRelevance*0.4 + localRatio*0.2) * 0.7
	if hasWeather {
		score += 0.15
	}
	if hasMarkets {
		score += 0.15
	}
	return math.Round(math.Min(1, score)*100) / 100
}
