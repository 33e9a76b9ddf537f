package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/mileusna/useragent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIDFromURL(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/recording/42", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "42"})

	id, err := ExtractIDFromURL(r)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestExtractIDFromURLRejectsBadInput(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/recording/abc", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "abc"})
	_, err := ExtractIDFromURL(r)
	assert.EqualError(t, err, "ID must be a number")

	r = httptest.NewRequest("GET", "/api/recording/0", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "0"})
	_, err = ExtractIDFromURL(r)
	assert.EqualError(t, err, "ID must be greater than zero")

	r = httptest.NewRequest("GET", "/api/recording", nil)
	_, err = ExtractIDFromURL(r)
	assert.Error(t, err)
}

func TestExtractDomainFromURL(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/recordings/example.com", nil)
	r = mux.SetURLVars(r, map[string]string{"domain": "example.com"})

	domain, err := ExtractDomainFromURL(r)
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
}

func TestExtractDateRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?startDate=2026-08-01T00:00:00.000Z&endDate=2026-08-29T23:59:59.999Z", nil)
	start, end, err := ExtractDateRange(r)
	require.NoError(t, err)
	assert.True(t, start.Before(end))

	r = httptest.NewRequest("GET", "/x?startDate=yesterday&endDate=2026-08-29T23:59:59.999Z", nil)
	_, _, err = ExtractDateRange(r)
	assert.EqualError(t, err, "invalid startDate")
}

func TestExtractPagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	limit, offset := ExtractPagination(r, 25, 100)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 0, offset)

	r = httptest.NewRequest("GET", "/x?limit=50&offset=75", nil)
	limit, offset = ExtractPagination(r, 25, 100)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 75, offset)

	r = httptest.NewRequest("GET", "/x?limit=5000&offset=-3", nil)
	limit, offset = ExtractPagination(r, 25, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}

func TestGetDeviceType(t *testing.T) {
	ua := useragent.Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Equal(t, "Mobile", GetDeviceType(&ua))

	ua = useragent.Parse("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "Desktop", GetDeviceType(&ua))
}
