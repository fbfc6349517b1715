package entity

import (
	"strings"
	"unicode/utf8"
)

// Platform identifies a social network by its lowercase name
type Platform string

const (
	PlatformBluesky   Platform = "bluesky"
	PlatformMastodon  Platform = "mastodon"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

// DefaultLimit is the advisory character limit for platforms missing from the limit table
const DefaultLimit = 500

// ellipsis is appended to truncated text
const ellipsis = "..."

// MaxMediaItems is the number of media URLs a live adapter uploads per post
const MaxMediaItems = 4

// All lists every known platform in canonical order
var All = []Platform{
	PlatformBluesky,
	PlatformMastodon,
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformTwitter,
}

// DraftPlatforms lists the platforms that have a draft column in the queue
var DraftPlatforms = []Platform{
	PlatformBluesky,
	PlatformMastodon,
	PlatformLinkedIn,
	PlatformFacebook,
	PlatformInstagram,
}

var limits = map[Platform]int{
	PlatformBluesky:   300,
	PlatformMastodon:  500,
	PlatformFacebook:  63206,
	PlatformInstagram: 2200,
	PlatformLinkedIn:  3000,
	PlatformTwitter:   280,
}

// Parse normalizes a platform name and reports whether it is known
func Parse(name string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	_, ok := limits[p]
	return p, ok
}

// Limit returns the character limit for the platform, or DefaultLimit when unknown
func (p Platform) Limit() int {
	if l, ok := limits[p]; ok {
		return l
	}
	return DefaultLimit
}

// HasDraft reports whether the platform has a draft column in the queue
func (p Platform) HasDraft() bool {
	for _, d := range DraftPlatforms {
		if d == p {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// Names returns the string names of the given platforms
func Names(platforms []Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

// Mode tells whether an adapter talks to the real vendor API
type Mode string

const (
	ModeLive Mode = "live"
	ModeStub Mode = "stub"
)

// Truncate shortens text to limit code points, replacing the tail with an ellipsis.
// A limit too small for the ellipsis cuts the text without one.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// PostOutput is what a platform returns after a successful post
type PostOutput struct {
	PostID string `json:"post_id"`
	URL    string `json:"url"`
}

// Metrics is an engagement snapshot for one post
type Metrics struct {
	Likes       int `json:"likes"`
	Reposts     int `json:"reposts"`
	Replies     int `json:"replies"`
	Impressions int `json:"impressions"`
}

// PostResult is the per-platform outcome of a posting attempt
type PostResult struct {
	Platform Platform `json:"platform"`
	Success  bool     `json:"success"`
	PostID   string   `json:"post_id,omitempty"`
	URL      string   `json:"url,omitempty"`
	Error    string   `json:"error,omitempty"`
}
