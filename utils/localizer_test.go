package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIPAddress(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/recording", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	assert.Equal(t, "203.0.113.7", GetIPAddress(r))

	// first public hop wins over proxies in X-Forwarded-For
	r.Header.Set("X-Forwarded-For", "192.168.1.10, 198.51.100.23, 10.0.0.1")
	assert.Equal(t, "198.51.100.23", GetIPAddress(r))

	r.Header.Del("X-Forwarded-For")
	r.Header.Set("X-Real-IP", "198.51.100.99")
	assert.Equal(t, "198.51.100.99", GetIPAddress(r))
}

func TestLookupLocationWithoutDatabase(t *testing.T) {
	location := LookupLocation(nil, "198.51.100.23")
	assert.Equal(t, Location{Country: "Unknown", Region: "Unknown", City: "Unknown"}, location)

	location = LookupLocation(nil, "not-an-ip")
	assert.Equal(t, "Unknown", location.Country)
}
