package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/live-commerce/claim-service/internal/domain"
)

// ClaimRepository is the Postgres-backed claim store.
type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Insert(ctx context.Context, claim *domain.Claim) error {
	query := `
		INSERT INTO claims (
			id, session_id, item_id, variant_id, customer_label,
			quantity, status, joy_reserve, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		claim.ID,
		claim.SessionID,
		claim.ItemID,
		nullableUUID(claim.VariantID),
		claim.CustomerLabel,
		claim.Quantity,
		claim.Status,
		claim.JoyReserve,
		claim.Reason,
		claim.CreatedAt,
		claim.UpdatedAt,
	)

	return err
}

func (r *ClaimRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Claim, error) {
	query := `
		SELECT id, session_id, item_id, variant_id, customer_label,
			   quantity, status, joy_reserve, reason, created_at, updated_at
		FROM claims
		WHERE id = $1
	`

	claim, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError("claim", id.String())
	}
	return claim, err
}

func (r *ClaimRepository) Update(ctx context.Context, claim *domain.Claim, expect domain.ClaimStatus) error {
	query := `
		UPDATE claims
		SET status = $2, joy_reserve = $3, reason = $4, updated_at = $5
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		claim.ID, claim.Status, claim.JoyReserve, claim.Reason, claim.UpdatedAt, expect)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Row missing or status moved under us; look once to tell them apart.
		if _, getErr := r.Get(ctx, claim.ID); getErr != nil {
			return getErr
		}
		return domain.ErrConcurrencyConflict
	}
	return nil
}

func (r *ClaimRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewNotFoundError("claim", id.String())
	}
	return nil
}

func (r *ClaimRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, status domain.ClaimStatus) ([]*domain.Claim, error) {
	query := `
		SELECT id, session_id, item_id, variant_id, customer_label,
			   quantity, status, joy_reserve, reason, created_at, updated_at
		FROM claims
		WHERE session_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*domain.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

func (r *ClaimRepository) ListWaitlisted(ctx context.Context, sessionID uuid.UUID) ([]*domain.Claim, error) {
	return r.ListBySession(ctx, sessionID, domain.ClaimStatusWaitlist)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*domain.Claim, error) {
	claim := &domain.Claim{}
	var variantID uuid.NullUUID

	err := row.Scan(
		&claim.ID,
		&claim.SessionID,
		&claim.ItemID,
		&variantID,
		&claim.CustomerLabel,
		&claim.Quantity,
		&claim.Status,
		&claim.JoyReserve,
		&claim.Reason,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if variantID.Valid {
		claim.VariantID = variantID.UUID
	}
	return claim, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
