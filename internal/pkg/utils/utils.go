package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID generates a UUID v4 string for request tracing.
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateLineID builds a numeric identifier the panel accepts as a
// path segment: current unix time truncated to eight digits, shifted,
// plus a two-digit random suffix. Always positive; collisions are
// unlikely without a coordinating sequence and are left for the panel
// to surface.
func GenerateLineID() int64 {
	base := time.Now().Unix() % 100000000
	n, _ := rand.Int(rand.Reader, big.NewInt(90))
	return base*100 + n.Int64() + 10
}

// GenerateUsername creates a 12-character uppercase alphanumeric username.
func GenerateUsername() string {
	return RandomCode(12)
}

// RandomCode generates a random uppercase alphanumeric code of given length.
func RandomCode(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// ParseInt safely converts a string to int with a default value.
func ParseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

// Truncate shortens a string to max characters for log/diagnostic payloads.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

// NowStamp returns the current time formatted for webhook responses.
func NowStamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
