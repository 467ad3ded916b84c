package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhitelistUpdate records one run that rewrote the whitelist file.
type WhitelistUpdate struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RunID         string    `json:"run_id" gorm:"uniqueIndex"`
	WhitelistFile string    `json:"whitelist_file"`
	Entries       int       `json:"entries"`
	ContentHash   string    `json:"content_hash"` // sha256 of the rendered whitelist
	SnapshotSaved bool      `json:"snapshot_saved"`
	Reloaded      bool      `json:"reloaded"`
	ErrorMsg      string    `json:"error_msg" gorm:"type:text"`
	AppliedAt     time.Time `json:"applied_at" gorm:"index"`
}

// BeforeCreate fills in the run ID and timestamp when the caller left them empty
func (u *WhitelistUpdate) BeforeCreate(tx *gorm.DB) error {
	if u.RunID == "" {
		u.RunID = uuid.New().String()
	}
	if u.AppliedAt.IsZero() {
		u.AppliedAt = time.Now()
	}
	return nil
}
