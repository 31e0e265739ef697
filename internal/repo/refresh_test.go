package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackboard/trackboard/internal/models"
	"github.com/trackboard/trackboard/internal/repo"
	"github.com/trackboard/trackboard/internal/testutil"
	"github.com/trackboard/trackboard/internal/tokens"
)

func TestIssueAndValidateRefreshToken(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	raw, record, err := r.IssueRefreshToken(ctx, 1, "test-agent", 14*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.NotEmpty(t, record.JTI)
	assert.Equal(t, uint(1), record.UserID)
	assert.Equal(t, "test-agent", record.DeviceInfo)
	assert.False(t, record.Revoked)

	// The raw secret must never hit the table, only its hash.
	var stored models.RefreshToken
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.NotEqual(t, raw, stored.TokenHash)
	assert.Equal(t, tokens.Sha256Hex(raw), stored.TokenHash)

	got, err := r.ValidateRefreshToken(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, record.JTI, got.JTI)
}

func TestValidateRefreshToken_UnknownToken(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)

	_, err := r.ValidateRefreshToken(context.Background(), tokens.NewRefreshSecret())
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)
}

func TestValidateRefreshToken_Expired(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	raw, record, err := r.IssueRefreshToken(ctx, 1, "", -time.Minute)
	require.NoError(t, err)
	require.False(t, record.Revoked)

	// Expired but unrevoked still fails, indistinguishably from unknown.
	_, err = r.ValidateRefreshToken(ctx, raw)
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)
}

func TestRevokeRefreshToken_Idempotent(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	raw, record, err := r.IssueRefreshToken(ctx, 1, "", time.Hour)
	require.NoError(t, err)

	require.NoError(t, r.RevokeRefreshToken(ctx, record.JTI))
	require.NoError(t, r.RevokeRefreshToken(ctx, record.JTI))

	var stored models.RefreshToken
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.True(t, stored.Revoked)

	_, err = r.ValidateRefreshToken(ctx, raw)
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)

	// Unknown jti is a no-op, not an error.
	require.NoError(t, r.RevokeRefreshToken(ctx, "no-such-jti"))
}

func TestRotateRefreshToken(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	oldRaw, oldRecord, err := r.IssueRefreshToken(ctx, 7, "agent", time.Hour)
	require.NoError(t, err)

	newRaw, newRecord, err := r.RotateRefreshToken(ctx, oldRecord.JTI, 7, "agent", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, oldRaw, newRaw)
	assert.NotEqual(t, oldRecord.JTI, newRecord.JTI)

	_, err = r.ValidateRefreshToken(ctx, oldRaw)
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)

	got, err := r.ValidateRefreshToken(ctx, newRaw)
	require.NoError(t, err)
	assert.Equal(t, newRecord.JTI, got.JTI)

	// The ledger keeps the revoked row for audit, it is never deleted.
	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRotateRefreshToken_SingleWinner(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	_, oldRecord, err := r.IssueRefreshToken(ctx, 7, "", time.Hour)
	require.NoError(t, err)

	// Two requests racing on the same token both validate first; only the
	// first rotation may succeed.
	winnerRaw, _, err := r.RotateRefreshToken(ctx, oldRecord.JTI, 7, "", time.Hour)
	require.NoError(t, err)

	loserRaw, _, err := r.RotateRefreshToken(ctx, oldRecord.JTI, 7, "", time.Hour)
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)
	assert.Empty(t, loserRaw)

	// Exactly one live successor exists.
	_, err = r.ValidateRefreshToken(ctx, winnerRaw)
	require.NoError(t, err)
	var live int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("revoked = ?", false).Count(&live).Error)
	assert.Equal(t, int64(1), live)
}

func TestRotateRefreshToken_ExpiredOld(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	r := repo.NewGormRepo(db)
	ctx := context.Background()

	_, record, err := r.IssueRefreshToken(ctx, 7, "", -time.Minute)
	require.NoError(t, err)

	_, _, err = r.RotateRefreshToken(ctx, record.JTI, 7, "", time.Hour)
	assert.ErrorIs(t, err, repo.ErrInvalidRefreshToken)
}
