package store

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeSource returns the canonical form of a source: URLs lose query,
// fragment and trailing slashes; file paths become absolute and clean.
func NormalizeSource(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NormalizeURL(source)
	}
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return filepath.Clean(source)
}

// NormalizeURL removes query params, hash fragments, and trailing slashes.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return cleanURLString(rawURL)
	}

	u.RawQuery = ""
	u.Fragment = ""
	normalized := u.String()

	// "https://example.com" and "https://example.com/" are the same page.
	if u.Path == "" || u.Path == "/" {
		if !strings.HasSuffix(normalized, "/") {
			normalized += "/"
		}
		return normalized
	}
	return strings.TrimRight(normalized, "/")
}

func cleanURLString(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx != -1 {
		rawURL = rawURL[:idx]
	}
	if idx := strings.Index(rawURL, "#"); idx != -1 {
		rawURL = rawURL[:idx]
	}
	rawURL = strings.TrimRight(rawURL, "/")
	if rawURL == "" {
		rawURL = "/"
	}
	return rawURL
}

// HashKey returns a filesystem-safe name for key: the first 16 hex
// characters of its SHA-256.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])[:16]
}
