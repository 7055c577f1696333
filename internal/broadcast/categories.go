package broadcast

// Category labels a content item. Profiles reference these when declaring
// their percentage mix.
type Category string

const (
	CategoryBitcoin       Category = "bitcoin"
	CategoryMarkets       Category = "markets"
	CategoryTechnology    Category = "technology"
	CategoryWorld         Category = "world"
	CategoryLocal         Category = "local"
	CategorySport         Category = "sport"
	CategoryEntertainment Category = "entertainment"
	CategoryScience       Category = "science"
	CategoryWeather       Category = "weather"
)

var knownCategories = map[Category]bool{
	CategoryBitcoin:       true,
	CategoryMarkets:       true,
	CategoryTechnology:    true,
	CategoryWorld:         true,
	CategoryLocal:         true,
	CategorySport:         true,
	CategoryEntertainment: true,
	CategoryScience:       true,
	CategoryWeather:       true,
}

// KnownCategory reports whether c is part of the fixed category set.
func KnownCategory(c Category) bool {
	return knownCategories[c]
}
