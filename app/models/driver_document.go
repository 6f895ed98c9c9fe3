package models

import "time"

const (
	DocumentKindLicenceFront = "licence_front"
	DocumentKindLicenceBack  = "licence_back"
	DocumentKindIdentity     = "identity"
	DocumentKindProofOfStay  = "proof_of_stay"
	DocumentKindOther        = "other"
)

const (
	DocumentReviewPending  = "pending"
	DocumentReviewApproved = "approved"
	DocumentReviewRejected = "rejected"
)

// DriverDocument references an uploaded document in the blob store. Only the
// storage key is persisted; bytes live in the document store.
type DriverDocument struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DriverID     uint       `gorm:"not null;index" json:"driver_id"`
	Driver       *Driver    `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Kind         string     `gorm:"type:varchar(30);not null" json:"kind"`
	FileName     string     `gorm:"type:varchar(255)" json:"file_name"`
	StorageKey   string     `gorm:"type:varchar(255);not null" json:"storage_key"`
	ContentType  string     `gorm:"type:varchar(100)" json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	ReviewStatus string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"review_status"`
	ReviewedAt   *time.Time `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	ReviewNote   string     `gorm:"type:text" json:"review_note,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
