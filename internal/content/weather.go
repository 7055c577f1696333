package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

// weatherRelevance is fixed: the forecast is always worth a short segment but
// never outranks a strong headline.
const weatherRelevance = 0.8

// WeatherCollector fetches current conditions from the open-meteo forecast
// API and renders them as a single radio-ready item.
type WeatherCollector struct {
	cfg        config.WeatherConfig
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

func NewWeatherCollector(cfg config.WeatherConfig, client *http.Client) *WeatherCollector {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WeatherCollector{
		cfg:        cfg,
		endpoint:   "https://api.open-meteo.com/v1/forecast",
		httpClient: client,
		now:        time.Now,
	}
}

func (c *WeatherCollector) Name() string { return "weather" }

type meteoResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (c *WeatherCollector) Collect(ctx context.Context) ([]Item, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", c.cfg.Latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", c.cfg.Longitude))
	query.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather fetch: unexpected status %s", resp.Status)
	}

	var raw meteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("weather decode: %w", err)
	}

	temp := int(math.Round(raw.CurrentWeather.Temperature))
	conditions := describeWeatherCode(raw.CurrentWeather.WeatherCode)
	wind := int(math.Round(raw.CurrentWeather.WindSpeed))

	summary := fmt.Sprintf("Right now in %s it is %d degrees with %s. Wind at %d kilometers per hour.",
		c.cfg.City, temp, conditions, wind)

	return []Item{{
		Category:    broadcast.CategoryWeather,
		Source:      "open-meteo",
		Title:       fmt.Sprintf("Weather in %s", c.cfg.City),
		Summary:     summary,
		Relevance:   weatherRelevance,
		PublishedAt: c.now().UTC(),
	}}, nil
}

// describeWeatherCode translates WMO weather codes into spoken language.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear skies"
	case code <= 2:
		return "a few clouds"
	case code == 3:
		return "overcast skies"
	case code == 45 || code == 48:
		return "fog"
	case code >= 51 && code <= 57:
		return "light drizzle"
	case code >= 61 && code <= 67:
		return "rain"
	case code >= 71 && code <= 77:
		return "snowfall"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code == 85 || code == 86:
		return "snow showers"
	case code >= 95:
		return "thunderstorms"
	default:
		return "changing conditions"
	}
}
