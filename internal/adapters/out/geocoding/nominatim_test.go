package geocoding_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"courierdesk/internal/adapters/out/geocoding"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/logging"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatim_ReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "39.9255", r.URL.Query().Get("lat"))
		assert.Equal(t, "32.8663", r.URL.Query().Get("lon"))
		assert.Equal(t, "courierdesk-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Kızılay, Çankaya, Ankara"}`))
	}))
	defer server.Close()

	geocoder := geocoding.NewNominatim(geocoding.Options{
		BaseURL:   server.URL + "/",
		UserAgent: "courierdesk-test",
	}, logging.Discard())

	address, err := geocoder.ReverseGeocode(t.Context(), kernel.MustGeoPoint(39.9255, 32.8663))
	require.NoError(t, err)
	assert.Equal(t, "Kızılay, Çankaya, Ankara", address)
}

func TestNominatim_NoAddressDoesNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	geocoder := geocoding.NewNominatim(geocoding.Options{BaseURL: server.URL}, logging.Discard())

	for range 5 {
		_, err := geocoder.ReverseGeocode(t.Context(), kernel.MustGeoPoint(0, 0))
		require.ErrorIs(t, err, geocoding.ErrNoAddress)
	}
	assert.Equal(t, gobreaker.StateClosed, geocoder.State())
}

func TestNominatim_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	geocoder := geocoding.NewNominatim(geocoding.Options{BaseURL: server.URL}, logging.Discard())
	point := kernel.MustGeoPoint(1, 1)

	for range 3 {
		_, err := geocoder.ReverseGeocode(t.Context(), point)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, geocoder.State())

	_, err := geocoder.ReverseGeocode(t.Context(), point)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}

func TestNominatim_RejectsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	geocoder := geocoding.NewNominatim(geocoding.Options{BaseURL: server.URL}, logging.Discard())

	_, err := geocoder.ReverseGeocode(t.Context(), kernel.MustGeoPoint(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
