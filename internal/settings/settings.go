// Package settings holds the user's protection preferences: whether the
// pause is enabled, how long it lasts, and which sites are exempt.
package settings

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
)

const (
	MinDelay     = 5
	MaxDelay     = 3600
	DefaultDelay = 60
)

// ErrInvalid is returned when stored settings cannot be read.
var ErrInvalid = errors.New("settings: invalid")

// Snapshot is a read-only copy of the settings at one point in time.
type Snapshot struct {
	Enabled          bool     `yaml:"enabled"           json:"enabled"`
	DelaySeconds     int      `yaml:"delay_seconds"     json:"delay_seconds"`
	WhitelistDomains []string `yaml:"whitelist_domains" json:"whitelist_domains"`
}

// Default returns the settings used when nothing is stored.
func Default() Snapshot {
	return Snapshot{Enabled: true, DelaySeconds: DefaultDelay, WhitelistDomains: []string{}}
}

// ClampDelay limits seconds to [MinDelay, MaxDelay].
func ClampDelay(seconds int) int {
	return min(max(seconds, MinDelay), MaxDelay)
}

// Normalized returns s with the delay clamped and the whitelist cleaned of
// blanks and duplicates.
func (s Snapshot) Normalized() Snapshot {
	out := Snapshot{
		Enabled:          s.Enabled,
		DelaySeconds:     ClampDelay(s.DelaySeconds),
		WhitelistDomains: []string{},
	}
	for _, d := range s.WhitelistDomains {
		d = NormalizeDomain(d)
		if d != "" && !slices.Contains(out.WhitelistDomains, d) {
			out.WhitelistDomains = append(out.WhitelistDomains, d)
		}
	}
	return out
}

// IsWhitelisted reports whether host exactly matches a whitelisted domain,
// ignoring case. Subdomains are not implied.
func (s Snapshot) IsWhitelisted(host string) bool {
	host = NormalizeDomain(host)
	if host == "" {
		return false
	}
	for _, d := range s.WhitelistDomains {
		if NormalizeDomain(d) == host {
			return true
		}
	}
	return false
}

// NormalizeDomain reduces a host or URL to a lowercase hostname.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Hostname()
		}
	} else {
		s, _, _ = strings.Cut(s, "/")
		if h, _, ok := strings.Cut(s, ":"); ok && !strings.Contains(h, "]") {
			s = h
		}
	}
	return strings.TrimSuffix(s, ".")
}

// Source provides settings snapshots.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Static is a Source that always returns the same snapshot.
type Static Snapshot

// Snapshot implements Source.
func (s Static) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}
