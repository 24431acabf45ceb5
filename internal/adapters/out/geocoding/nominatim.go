// Package geocoding resolves destination coordinates to street addresses
// through a Nominatim compatible reverse geocoding API.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/ports"

	"github.com/google/go-querystring/query"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "courierdesk/1.0"

	defaultTimeout  = 5 * time.Second
	maxResponseSize = 1 << 20
)

var (
	// ErrNoAddress is returned when the service knows no address for a point.
	ErrNoAddress = errors.New("no address found for coordinates")

	_ ports.Geocoder = (*Nominatim)(nil)
)

type reverseParams struct {
	Format string  `url:"format"`
	Lat    float64 `url:"lat"`
	Lon    float64 `url:"lon"`
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

type Options struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Nominatim calls /reverse and trips its breaker after repeated failures so
// that task creation does not wait on a dead service.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

func NewNominatim(opts Options, logger *slog.Logger) *Nominatim {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	logger = logger.With("component", "nominatim_geocoder")

	return &Nominatim{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		client:    opts.HTTPClient,
		logger:    logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "nominatim",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoAddress) || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (n *Nominatim) ReverseGeocode(ctx context.Context, point kernel.GeoPoint) (string, error) {
	if err := point.Validate(); err != nil {
		return "", err
	}

	result, err := n.breaker.Execute(func() (interface{}, error) {
		return n.reverse(ctx, point)
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %s: %w", point, err)
	}
	return result.(string), nil
}

func (n *Nominatim) reverse(ctx context.Context, point kernel.GeoPoint) (string, error) {
	values, err := query.Values(reverseParams{Format: "jsonv2", Lat: point.Lat(), Lon: point.Lng()})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+values.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	address := strings.TrimSpace(body.DisplayName)
	if address == "" {
		n.logger.DebugContext(ctx, "No address for coordinates", "point", point.String(), "reason", body.Error)
		return "", ErrNoAddress
	}
	return address, nil
}

// State exposes the breaker state for health reporting.
func (n *Nominatim) State() gobreaker.State {
	return n.breaker.State()
}
