// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditBase carries the audit columns shared by every entity: a generated
// UUID primary key, creation/modification timestamps, and the soft-delete
// flag. Rows are never physically removed; "deleting" an entity flips Active
// to false, and active-scoped queries must filter on it. Raw-ID lookups keep
// returning inactive rows so audit history stays reachable.
type AuditBase struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
}

// BeforeCreate assigns a UUID when none was set by the caller.
func (b *AuditBase) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
