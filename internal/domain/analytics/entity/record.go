package entity

import (
	"strconv"
	"strings"
	"time"

	platform "github.com/vadim/socialops/internal/domain/platform/entity"
)

// Header is the analytics tab header row
var Header = []string{
	"post_id", "platform", "content_id", "posted_at",
	"likes", "reposts", "replies", "impressions", "collected_at",
}

// Columns is the number of cells in an analytics row
var Columns = len(Header)

const (
	colPostID = iota
	colPlatform
	colContentID
	colPostedAt
	colLikes
	colReposts
	colReplies
	colImpressions
	colCollectedAt
)

// Record is an engagement snapshot for one post on one platform
type Record struct {
	Row         int    `json:"row,omitempty"`
	PostID      string `json:"post_id"`
	Platform    string `json:"platform"`
	ContentID   string `json:"content_id"`
	PostedAt    string `json:"posted_at"`
	Likes       int    `json:"likes"`
	Reposts     int    `json:"reposts"`
	Replies     int    `json:"replies"`
	Impressions int    `json:"impressions"`
	CollectedAt string `json:"collected_at"`
}

// Key identifies a record: the same vendor id may exist on two platforms
type Key struct {
	Platform string
	PostID   string
}

func (r *Record) Key() Key {
	return Key{Platform: r.Platform, PostID: r.PostID}
}

// SetMetrics copies counters from a metrics snapshot
func (r *Record) SetMetrics(m platform.Metrics) {
	r.Likes = m.Likes
	r.Reposts = m.Reposts
	r.Replies = m.Replies
	r.Impressions = m.Impressions
}

// Metrics returns the counters as a metrics snapshot
func (r *Record) Metrics() platform.Metrics {
	return platform.Metrics{
		Likes:       r.Likes,
		Reposts:     r.Reposts,
		Replies:     r.Replies,
		Impressions: r.Impressions,
	}
}

// CollectedWithin reports whether the record was collected after since.
// Records with an unparseable timestamp are always kept.
func (r *Record) CollectedWithin(since time.Time) bool {
	t, ok := ParseTimestamp(r.CollectedAt)
	if !ok {
		return true
	}
	return !t.Before(since)
}

// ToRow encodes the record as a 9-cell row
func (r *Record) ToRow() []string {
	row := make([]string, Columns)
	row[colPostID] = r.PostID
	row[colPlatform] = r.Platform
	row[colContentID] = r.ContentID
	row[colPostedAt] = r.PostedAt
	row[colLikes] = strconv.Itoa(r.Likes)
	row[colReposts] = strconv.Itoa(r.Reposts)
	row[colReplies] = strconv.Itoa(r.Replies)
	row[colImpressions] = strconv.Itoa(r.Impressions)
	row[colCollectedAt] = r.CollectedAt
	return row
}

// MetricCells returns the counter and collected_at cells keyed by column index
func (r *Record) MetricCells() map[int]string {
	return map[int]string{
		colLikes:       strconv.Itoa(r.Likes),
		colReposts:     strconv.Itoa(r.Reposts),
		colReplies:     strconv.Itoa(r.Replies),
		colImpressions: strconv.Itoa(r.Impressions),
		colCollectedAt: r.CollectedAt,
	}
}

// FromRow decodes a row, padding short rows. Counters that do not parse decode as 0.
func FromRow(row []string) Record {
	cells := make([]string, Columns)
	copy(cells, row)

	return Record{
		PostID:      cells[colPostID],
		Platform:    cells[colPlatform],
		ContentID:   cells[colContentID],
		PostedAt:    cells[colPostedAt],
		Likes:       atoi(cells[colLikes]),
		Reposts:     atoi(cells[colReposts]),
		Replies:     atoi(cells[colReplies]),
		Impressions: atoi(cells[colImpressions]),
		CollectedAt: cells[colCollectedAt],
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339 and the naive ISO forms found in older sheets
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
