package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// PurchaseRepo records completed checkouts. The provider reference is
// unique, which is what makes webhook redelivery harmless.
type PurchaseRepo struct{ DB *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db} }

// RecordWithCredit stores the purchase and credits the sessions to the
// buyer in one transaction, so a crash can never leave a recorded
// purchase that was not credited. Returns ErrDuplicate when the
// provider reference has already been recorded.
func (r *PurchaseRepo) RecordWithCredit(ctx context.Context, p *model.Purchase) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (id, user_id, package_id, sessions_added, provider_ref)
		 VALUES (?,?,?,?,?)`,
		p.ID, p.UserID, p.PackageID, p.SessionsAdded, p.ProviderRef); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET sessions_remaining = sessions_remaining + ? WHERE id = ?`,
		p.SessionsAdded, p.UserID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByUser returns a member's purchase history, newest first.
func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Purchase, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, package_id, sessions_added, provider_ref, created_at
		 FROM purchases WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Purchase, 0)
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.PackageID, &p.SessionsAdded, &p.ProviderRef, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
