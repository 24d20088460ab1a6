// Package weather provides optional real-world rainfall forcing via
// OpenWeatherMap: live precipitation at a chosen location maps to the
// rainfall intensity driving the infiltration model.
package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client fetches weather data from OpenWeatherMap.
type Client struct {
	apiKey   string
	location string
	client   *http.Client

	mu          sync.Mutex
	cached      *Conditions
	cachedAt    time.Time
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

// NewClient creates a weather API client. Returns nil if apiKey is empty.
func NewClient(apiKey, location string) *Client {
	if apiKey == "" {
		return nil
	}
	if location == "" {
		location = "Bergen,NO"
	}
	return &Client{
		apiKey:   apiKey,
		location: location,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: 5 * time.Minute,
	}
}

// Conditions holds parsed weather data from the API.
type Conditions struct {
	Temp        float64 `json:"temp"`         // Celsius
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`   // m/s
	RainLastHr  float64 `json:"rain_last_hr"` // mm over the past hour
	IsRain      bool    `json:"is_rain"`
	IsStorm     bool    `json:"is_storm"`
}

// Fetch retrieves current weather conditions, using cache if fresh.
func (c *Client) Fetch() (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	conditions, err := c.fetchFromAPI()
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if c.cached != nil {
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = conditions
	c.cachedAt = time.Now()
	c.failBackoff = 0 // Reset backoff on success.
	return conditions, nil
}

func (c *Client) fetchFromAPI() (*Conditions, error) {
	apiURL := fmt.Sprintf("https://api.openweathermap.org/data/2.5/weather?q=%s&appid=%s&units=metric",
		url.QueryEscape(c.location), c.apiKey)

	resp, err := c.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	// Parse OpenWeatherMap response.
	var owm struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
	}

	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	conditions := &Conditions{
		Temp:       owm.Main.Temp,
		WindSpeed:  owm.Wind.Speed,
		RainLastHr: owm.Rain.OneHour,
	}

	if len(owm.Weather) > 0 {
		conditions.Description = owm.Weather[0].Description
		main := strings.ToLower(owm.Weather[0].Main)
		conditions.IsRain = main == "rain" || main == "drizzle"
		conditions.IsStorm = main == "thunderstorm"
	}

	slog.Debug("weather fetched", "temp", conditions.Temp, "rain_1h", conditions.RainLastHr, "desc", conditions.Description)
	return conditions, nil
}

// MapToForcing converts live conditions to a rainfall intensity in mm/hr.
// Nil conditions (no client or cold cache) mean no rain.
func MapToForcing(c *Conditions) float64 {
	if c == nil {
		return 0
	}

	intensity := c.RainLastHr
	if intensity == 0 && c.IsRain {
		intensity = 2.5 // light rain reported without a volume figure
	}
	if c.IsStorm && intensity < 10 {
		intensity = 10
	}
	return intensity
}
