package database

import (
	"time"
)

// AuditVerification is the persisted outcome of one verification request.
// Every request writes a row, repeated verifications of the same subject
// included.
type AuditVerification struct {
	BaseEntity
	VerificationType VerificationType `gorm:"type:varchar(10);index"`
	SubjectID        uint64           `gorm:"index"` // Ticket ID or draw ID, 0 for chain verifications
	IsValid          bool
	Details          string `gorm:"type:varchar(1000)"`
	VerifierAddress  string `gorm:"type:varchar(50)"`
	CreatedAt        time.Time
}
