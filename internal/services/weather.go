// ABOUTME: Weather lookups backed by the wttr.in JSON API.
// ABOUTME: Renders current conditions plus a short multi-day forecast.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WeatherConfig configures a WeatherService.
type WeatherConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// WeatherService fetches weather reports for a city.
type WeatherService struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewWeatherService creates a weather service. Zero-value config fields
// get sensible defaults.
func NewWeatherService(cfg WeatherConfig) *WeatherService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://wttr.in"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &WeatherService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.HTTPClient,
		logger:  cfg.Logger.With("service", "weather"),
	}
}

// forecast hours reported per day, matching wttr.in's 3-hourly buckets.
var forecastHours = map[string]string{
	"600":  "Morning",
	"1200": "Noon",
	"1800": "Evening",
	"2100": "Night",
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC       string `json:"temp_C"`
		FeelsLikeC  string `json:"FeelsLikeC"`
		Humidity    string `json:"humidity"`
		WeatherDesc []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
		WindspeedKmph string `json:"windspeedKmph"`
	} `json:"current_condition"`
	Weather []struct {
		Date     string `json:"date"`
		MaxTempC string `json:"maxtempC"`
		MinTempC string `json:"mintempC"`
		Hourly   []struct {
			Time        string `json:"time"`
			TempC       string `json:"tempC"`
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"hourly"`
	} `json:"weather"`
}

// Report fetches and formats the weather for a city.
func (s *WeatherService) Report(ctx context.Context, city string) (string, error) {
	if strings.TrimSpace(city) == "" {
		return "", fmt.Errorf("city is required")
	}

	endpoint := fmt.Sprintf("%s/%s?format=j1", s.baseURL, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching weather for %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned status %d for %s", resp.StatusCode, city)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading weather response: %w", err)
	}

	var data wttrResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decoding weather response: %w", err)
	}
	if len(data.CurrentCondition) == 0 {
		return "", fmt.Errorf("no current conditions for %s", city)
	}

	var b strings.Builder
	cur := data.CurrentCondition[0]
	desc := ""
	if len(cur.WeatherDesc) > 0 {
		desc = cur.WeatherDesc[0].Value
	}
	fmt.Fprintf(&b, "Weather in %s:\n", city)
	fmt.Fprintf(&b, "Current: %s, %s°C (feels like %s°C), humidity %s%%, wind %s km/h\n",
		desc, cur.TempC, cur.FeelsLikeC, cur.Humidity, cur.WindspeedKmph)

	for i, day := range data.Weather {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "\n%s (%s°C to %s°C):\n", day.Date, day.MinTempC, day.MaxTempC)
		for _, hour := range day.Hourly {
			label, ok := forecastHours[hour.Time]
			if !ok {
				continue
			}
			hdesc := ""
			if len(hour.WeatherDesc) > 0 {
				hdesc = hour.WeatherDesc[0].Value
			}
			fmt.Fprintf(&b, "  %s: %s, %s°C\n", label, hdesc, hour.TempC)
		}
	}

	s.logger.Debug("weather fetched", "city", city)
	return b.String(), nil
}
