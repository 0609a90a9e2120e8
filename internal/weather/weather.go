// Package weather fetches current conditions for the weather view.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"bedclock/config"
	"bedclock/internal/store"
)

// Report is one observation of current conditions.
type Report struct {
	Location    string
	Main        string
	Description string
	Icon        string
	TempC       float64
	Pressure    int
	Humidity    int
	WindSpeed   float64
	ObservedAt  time.Time
}

// apiResponse models the fields of the upstream response that are used.
type apiResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure int     `json:"pressure"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

// Service polls the weather API and keeps the latest report.
type Service struct {
	cfg    *config.WeatherConfig
	store  store.Store
	client *http.Client
	now    func() time.Time

	latest atomic.Pointer[Report]
}

// NewService creates the weather poller. The location saved in the settings
// wins over the configured one; s may be nil.
func NewService(cfg *config.WeatherConfig, s store.Store) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Weather lookups will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:   cfg,
		store: s,
		client: &http.Client{
			Transport: transport,
			Timeout:   15 * time.Second,
		},
		now: time.Now,
	}
}

// Run polls until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Weather lookup is disabled. Not starting.")
		return
	}
	if s.cfg.APIKey == "" {
		log.Println("Weather lookup has no API key. Not starting.")
		return
	}
	log.Println("Starting weather service...")

	s.FetchOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Weather service shutting down.")
			return
		case <-timer.C:
			s.FetchOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// FetchOnce performs a single lookup. A failed lookup keeps the previous
// report.
func (s *Service) FetchOnce(ctx context.Context) {
	city, country := s.location(ctx)
	report, err := s.fetch(ctx, city, country)
	if err != nil {
		log.Printf("Error fetching weather for %s,%s: %v", city, country, err)
		return
	}
	s.latest.Store(report)
	log.Printf("Weather: %s (%s), %.1f°C, %d%% humidity", report.Main, report.Description, report.TempC, report.Humidity)
}

// Latest returns the most recent report.
func (s *Service) Latest() (Report, bool) {
	r := s.latest.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Summary is a one-line rendering of the latest report for the display.
func (s *Service) Summary() string {
	r, ok := s.Latest()
	if !ok {
		return "no weather data"
	}
	return fmt.Sprintf("%s: %s, %.0f°C, %d%%", r.Location, r.Description, r.TempC, r.Humidity)
}

func (s *Service) location(ctx context.Context) (string, string) {
	if s.store != nil {
		settings, err := store.LoadSettings(ctx, s.store)
		if err != nil {
			log.Printf("Warning: could not read location from settings: %v", err)
		} else if settings.City != "" {
			return settings.City, settings.CountryCode
		}
	}
	return s.cfg.City, s.cfg.CountryCode
}

func (s *Service) fetch(ctx context.Context, city, country string) (*Report, error) {
	q := city
	if country != "" {
		q += "," + country
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("appid", s.cfg.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	if len(apiResp.Weather) == 0 {
		return nil, fmt.Errorf("response has no weather conditions")
	}

	location := apiResp.Name
	if location == "" {
		location = city
	}
	return &Report{
		Location:    location,
		Main:        apiResp.Weather[0].Main,
		Description: apiResp.Weather[0].Description,
		Icon:        apiResp.Weather[0].Icon,
		TempC:       apiResp.Main.Temp,
		Pressure:    apiResp.Main.Pressure,
		Humidity:    apiResp.Main.Humidity,
		WindSpeed:   apiResp.Wind.Speed,
		ObservedAt:  s.now(),
	}, nil
}
