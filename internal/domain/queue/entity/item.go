package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	platform "github.com/vadim/socialops/internal/domain/platform/entity"
)

// Status represents the lifecycle stage of a queue item
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusPendingReview Status = "Pending Review"
	StatusApproved      Status = "Approved"
	StatusScheduled     Status = "Scheduled"
	StatusPosted        Status = "Posted"
	StatusFailed        Status = "Failed"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{
	StatusDraft,
	StatusPendingReview,
	StatusApproved,
	StatusScheduled,
	StatusPosted,
	StatusFailed,
}

// ParseStatus matches a status name case-insensitively
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IDLayout formats the time part of content ids: SM-YYYYMMDD-HHMMSS
const IDLayout = "SM-20060102-150405"

const idSuffixLen = 6

// NewContentID derives a content id from the creation time plus a short
// random suffix, so items created within the same second stay distinct
func NewContentID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
	return t.Format(IDLayout) + "-" + suffix
}

// Column names of the queue tab, in row order
const (
	ColContentID      = "content_id"
	ColTopic          = "topic"
	ColOrg            = "org"
	ColTone           = "tone"
	ColBlueskyDraft   = "bluesky_draft"
	ColMastodonDraft  = "mastodon_draft"
	ColLinkedInDraft  = "linkedin_draft"
	ColFacebookDraft  = "facebook_draft"
	ColInstagramDraft = "instagram_draft"
	ColStatus         = "status"
	ColCreatedAt      = "created_at"
	ColScheduledFor   = "scheduled_for"
	ColPostedAt       = "posted_at"
	ColPostIDs        = "post_ids"
)

// Header is the queue tab header row
var Header = []string{
	ColContentID, ColTopic, ColOrg, ColTone,
	ColBlueskyDraft, ColMastodonDraft, ColLinkedInDraft, ColFacebookDraft, ColInstagramDraft,
	ColStatus, ColCreatedAt, ColScheduledFor, ColPostedAt, ColPostIDs,
}

// Columns is the number of cells in a queue row
var Columns = len(Header)

// draftColumns holds the position of each draft platform column, starting at index 4
var draftColumns = map[platform.Platform]int{
	platform.PlatformBluesky:   4,
	platform.PlatformMastodon:  5,
	platform.PlatformLinkedIn:  6,
	platform.PlatformFacebook:  7,
	platform.PlatformInstagram: 8,
}

// DraftColumn returns the column name holding the draft of p
func DraftColumn(p platform.Platform) (string, bool) {
	idx, ok := draftColumns[p]
	if !ok {
		return "", false
	}
	return Header[idx], true
}

// QueueItem is one row of the content queue
type QueueItem struct {
	Row          int                          `json:"row,omitempty"`
	ContentID    string                       `json:"content_id"`
	Topic        string                       `json:"topic"`
	Org          string                       `json:"org"`
	Tone         string                       `json:"tone"`
	Drafts       map[platform.Platform]string `json:"drafts"`
	Status       Status                       `json:"status"`
	CreatedAt    string                       `json:"created_at"`
	ScheduledFor string                       `json:"scheduled_for"`
	PostedAt     string                       `json:"posted_at"`
	PostIDs      string                       `json:"post_ids"`
}

// Draft returns the draft text for p, empty when p has no draft column
func (q *QueueItem) Draft(p platform.Platform) string {
	return q.Drafts[p]
}

// SetDraft stores a draft for p; platforms without a draft column are ignored
func (q *QueueItem) SetDraft(p platform.Platform, text string) {
	if _, ok := draftColumns[p]; !ok {
		return
	}
	if q.Drafts == nil {
		q.Drafts = make(map[platform.Platform]string, len(draftColumns))
	}
	q.Drafts[p] = text
}

// DraftedPlatforms lists draft platforms with non-blank text, in column order
func (q *QueueItem) DraftedPlatforms() []platform.Platform {
	var out []platform.Platform
	for _, p := range platform.DraftPlatforms {
		if strings.TrimSpace(q.Drafts[p]) != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParsedPostIDs decodes the post_ids cell; malformed or empty cells yield nil
func (q *QueueItem) ParsedPostIDs() (map[string]string, error) {
	if strings.TrimSpace(q.PostIDs) == "" {
		return nil, nil
	}
	var ids map[string]string
	if err := json.Unmarshal([]byte(q.PostIDs), &ids); err != nil {
		return nil, fmt.Errorf("decoding post_ids: %w", err)
	}
	return ids, nil
}

// ToRow encodes the item as a 14-cell row
func (q *QueueItem) ToRow() []string {
	row := make([]string, Columns)
	row[0] = q.ContentID
	row[1] = q.Topic
	row[2] = q.Org
	row[3] = q.Tone
	for p, idx := range draftColumns {
		row[idx] = q.Drafts[p]
	}
	row[9] = string(q.Status)
	row[10] = q.CreatedAt
	row[11] = q.ScheduledFor
	row[12] = q.PostedAt
	row[13] = q.PostIDs
	return row
}

// FromRow decodes a row, padding short rows. An empty status decodes as Draft;
// unknown status text is kept verbatim.
func FromRow(row []string) QueueItem {
	cells := make([]string, Columns)
	copy(cells, row)

	item := QueueItem{
		ContentID:    cells[0],
		Topic:        cells[1],
		Org:          cells[2],
		Tone:         cells[3],
		Drafts:       make(map[platform.Platform]string, len(draftColumns)),
		Status:       Status(cells[9]),
		CreatedAt:    cells[10],
		ScheduledFor: cells[11],
		PostedAt:     cells[12],
		PostIDs:      cells[13],
	}
	for p, idx := range draftColumns {
		item.Drafts[p] = cells[idx]
	}
	if item.Status == "" {
		item.Status = StatusDraft
	}
	return item
}
