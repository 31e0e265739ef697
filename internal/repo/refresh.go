package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/tokens"
)

// IssueRefreshToken mints a new refresh token for the user. The returned
// raw secret is handed to the client; the table keeps only its sha256 hash.
func (r *GormRepo) IssueRefreshToken(ctx context.Context, userID uint, deviceInfo string, ttl time.Duration) (string, *models.RefreshToken, error) {
	return issueRefreshToken(r.DB.WithContext(ctx), userID, deviceInfo, ttl)
}

func issueRefreshToken(db *gorm.DB, userID uint, deviceInfo string, ttl time.Duration) (string, *models.RefreshToken, error) {
	raw := tokens.NewRefreshSecret()
	record := models.RefreshToken{
		JTI:        tokens.NewJTI(),
		TokenHash:  tokens.Sha256Hex(raw),
		UserID:     userID,
		DeviceInfo: deviceInfo,
		ExpiresAt:  time.Now().Add(ttl).UTC(),
	}
	if err := db.Create(&record).Error; err != nil {
		return "", nil, err
	}
	return raw, &record, nil
}

// ValidateRefreshToken looks up the presented raw token by hash. Missing,
// revoked and expired rows all come back as ErrInvalidRefreshToken.
func (r *GormRepo) ValidateRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("token_hash = ?", tokens.Sha256Hex(raw)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if record.Revoked || time.Now().After(record.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}
	return &record, nil
}

// RevokeRefreshToken flips Revoked for the jti. Revoking an already-revoked
// or unknown jti is a no-op.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	return revokeRefreshToken(r.DB.WithContext(ctx), jti)
}

func revokeRefreshToken(db *gorm.DB, jti string) error {
	return db.Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

// RotateRefreshToken revokes the old jti and issues a replacement in one
// transaction. The revoke is guarded: it only fires while the old row is
// still live, so when two requests race on the same token exactly one
// rotation wins and the other fails with ErrInvalidRefreshToken.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, userID uint, deviceInfo string, ttl time.Duration) (string, *models.RefreshToken, error) {
	var (
		raw    string
		record *models.RefreshToken
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ? AND expires_at > ?", oldJTI, false, time.Now()).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidRefreshToken
		}
		var err error
		raw, record, err = issueRefreshToken(tx, userID, deviceInfo, ttl)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return raw, record, nil
}
