package models

import "time"

type RecordStatus string

const (
	StatusPending  RecordStatus = "pending"
	StatusApproved RecordStatus = "approved"
	StatusRejected RecordStatus = "rejected"
)

// ImageRecord tracks the moderation state of one image hosted on the
// remote catalog. ExternalID is the catalog's identifier and is unique
// across the store. UploadedAt comes from the catalog at first sight and
// is never rewritten afterwards.
type ImageRecord struct {
	ID         string
	ExternalID string
	URL        string
	Metadata   map[string]any
	Status     RecordStatus
	UploadedAt time.Time
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
