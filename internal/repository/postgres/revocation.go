package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/savingapp/internal/apperrors"
)

// Postgres backed registry of revoked refresh token ids
type RevocationRepo struct {
	DB DBTX
}

const revokeToken = `-- name: RevokeToken
INSERT INTO revoked_tokens (token_id, revoked_at, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (token_id) DO NOTHING
`

// Revoke is atomic: of two concurrent calls with the same id only one succeeds
func (r *RevocationRepo) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tag, err := r.DB.Exec(ctx, revokeToken, tokenID, time.Now().UTC(), expiresAt)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrRefreshTokenIsUsed
	default:
		return nil
	}
}

func (r *RevocationRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

func (r *RevocationRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
