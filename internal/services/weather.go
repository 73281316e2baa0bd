package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/richardquay/urg-ride-maker/internal/dates"
	"github.com/richardquay/urg-ride-maker/internal/metrics"
)

const (
	defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/forecast"
	weatherCacheTTL       = 30 * time.Minute
	forecastWindow        = 3 * time.Hour
)

// Forecast is the slice of an OpenWeatherMap response shown in ride embeds.
type Forecast struct {
	Temperature   int    `json:"temperature"`
	Description   string `json:"description"`
	WindSpeedMph  int    `json:"wind_speed_mph"`
	Precipitation int    `json:"precipitation_percent"`
	Icon          string `json:"icon"`
}

type owmResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// WeatherService fetches ride-day forecasts, caching them briefly so a busy
// announcement channel does not hammer the upstream API. Forecast degrades
// to nil on any failure; weather is garnish, never a reason to block a ride.
type WeatherService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *redis.Client
	log     zerolog.Logger
	now     func() time.Time
}

func NewWeatherService(apiKey string, cache *redis.Client, log zerolog.Logger) *WeatherService {
	return &WeatherService{
		apiKey:  apiKey,
		baseURL: defaultWeatherBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     log,
		now:     time.Now,
	}
}

// Forecast returns the forecast closest to the ride date, or nil when the
// service is unconfigured, the date is beyond the 5-day horizon, or the
// upstream call fails.
func (s *WeatherService) Forecast(ctx context.Context, lat, lon float64, date string) *Forecast {
	if s.apiKey == "" {
		return nil
	}

	key := fmt.Sprintf("weather:%.4f,%.4f,%s", lat, lon, date)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached
	}

	target, err := dates.RideDateTime(date, "12:00 PM", s.now())
	if err != nil {
		s.log.Debug().Err(err).Str("date", date).Msg("weather skipped, bad date")
		return nil
	}

	forecast := s.fetch(ctx, lat, lon, target)
	if forecast == nil {
		return nil
	}
	s.toCache(ctx, key, forecast)
	return forecast
}

func (s *WeatherService) fetch(ctx context.Context, lat, lon float64, target time.Time) *Forecast {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("appid", s.apiKey)
	q.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn().Err(err).Msg("weather request failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.Warn().Int("status", resp.StatusCode).Msg("weather request rejected")
		return nil
	}

	var payload owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.log.Warn().Err(err).Msg("weather response unreadable")
		return nil
	}

	best := -1
	var bestDiff time.Duration
	for i, item := range payload.List {
		diff := time.Unix(item.Dt, 0).Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff > forecastWindow {
			continue
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	if best == -1 {
		return nil
	}

	item := payload.List[best]
	forecast := &Forecast{
		Temperature:   int(item.Main.Temp + 0.5),
		WindSpeedMph:  int(item.Wind.Speed + 0.5),
		Precipitation: int(item.Pop*100 + 0.5),
	}
	if len(item.Weather) > 0 {
		forecast.Description = item.Weather[0].Description
		forecast.Icon = item.Weather[0].Icon
	}
	return forecast
}

func (s *WeatherService) fromCache(ctx context.Context, key string) *Forecast {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		metrics.WeatherCacheTotal.WithLabelValues("miss").Inc()
		return nil
	}
	var forecast Forecast
	if err := json.Unmarshal(raw, &forecast); err != nil {
		metrics.WeatherCacheTotal.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.WeatherCacheTotal.WithLabelValues("hit").Inc()
	return &forecast
}

func (s *WeatherService) toCache(ctx context.Context, key string, forecast *Forecast) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(forecast)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, weatherCacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Msg("weather cache write failed")
	}
}
