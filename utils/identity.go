package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type dailySalt struct {
	salt []byte
	date time.Time
}

// Stored in memory; the salt rotates daily so visitor identifiers cannot be
// correlated across days.
var (
	dailySaltMu    sync.Mutex
	dailySaltCache = make(map[string]dailySalt)
)

func newDailySalt() ([]byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, err
	}
	return salt, nil
}

// GenerateDailySalt generates a unique salt for the current day if it hasn't
// been generated yet.
func GenerateDailySalt() ([]byte, error) {
	now := time.Now()
	dateString := now.Format("2006-01-02")

	dailySaltMu.Lock()
	defer dailySaltMu.Unlock()

	if salt, ok := dailySaltCache[dateString]; ok {
		return salt.salt, nil
	}

	salt, err := newDailySalt()
	if err != nil {
		return nil, err
	}

	dailySaltCache[dateString] = dailySalt{salt: salt, date: now}
	return salt, nil
}

// GenerateVisitorIdentifier hashes the daily salt with the project domain, IP
// address, and user agent to produce the daily visitor identifier used for
// unique session counting. No raw IP ever reaches the database.
func GenerateVisitorIdentifier(dailySalt []byte, projectDomain, ipAddress, userAgent string) (string, error) {
	combined := string(dailySalt) + projectDomain + ipAddress + userAgent

	hasher := sha256.New()
	hasher.Write([]byte(combined))
	hashed := hasher.Sum(nil)

	return hex.EncodeToString(hashed), nil
}
