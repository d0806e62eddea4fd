package database

import (
	"gorm.io/gorm"
)

func CreateAuditVerification(db *gorm.DB, v *AuditVerification) error {
	return db.Create(v).Error
}

// FetchRecentAuditVerifications returns the latest recorded
// verifications, newest first. An empty verification type matches all.
func FetchRecentAuditVerifications(
	db *gorm.DB,
	verificationType VerificationType,
	offset int,
	limit int,
) ([]AuditVerification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := db.Order("id desc").Offset(offset).Limit(limit)
	if len(verificationType) > 0 {
		query = query.Where(&AuditVerification{VerificationType: verificationType})
	}
	var verifications []AuditVerification
	err := query.Find(&verifications).Error
	return verifications, err
}

func CountAuditVerifications(db *gorm.DB, verificationType VerificationType) (int64, error) {
	var count int64
	err := db.Model(&AuditVerification{}).
		Where(&AuditVerification{VerificationType: verificationType}).
		Count(&count).Error
	return count, err
}
