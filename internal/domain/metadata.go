package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessConditionLayout is the calendar-date layout of the access
// condition; content becomes downloadable on or after that date.
const AccessConditionLayout = "2006-01-02"

// Metadata describes one uploaded capsule. OwnerID is immutable after
// creation; ContentAddress is assigned once by the storage node at upload.
type Metadata struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	ContentAddress  string    `json:"content_address"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"content_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	UploadedAt      time.Time `json:"uploaded_at"`
	AccessCondition string    `json:"access_condition"`
	Category        string    `json:"category"`
	Tags            string    `json:"tags"`
}

// StoredObject is what the storage node reports back for one stored file.
// It is never persisted on its own; the fields are folded into Metadata.
type StoredObject struct {
	Address string // content address assigned by the node
	Name    string // name the content was stored under
	Size    int64
}
