package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// PackageRepo persists purchasable session packages.
type PackageRepo struct{ DB *sql.DB }

func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{DB: db} }

const packageCols = `id, name, sessions, price_cents, is_active, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (*model.SessionPackage, error) {
	var p model.SessionPackage
	err := row.Scan(&p.ID, &p.Name, &p.Sessions, &p.PriceCents, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a package and returns its generated ID.
func (r *PackageRepo) Create(ctx context.Context, name string, sessions int, priceCents uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO packages (name, sessions, price_cents, is_active) VALUES (?,?,?,1)`,
		name, sessions, priceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetActive returns an active package or ErrNotFound. The webhook uses
// this so a retired package can no longer grant credit.
func (r *PackageRepo) GetActive(ctx context.Context, id uint64) (*model.SessionPackage, error) {
	p, err := scanPackage(r.DB.QueryRowContext(ctx,
		`SELECT `+packageCols+` FROM packages WHERE id = ? AND is_active = 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListActive returns all active packages, cheapest first.
func (r *PackageRepo) ListActive(ctx context.Context) ([]model.SessionPackage, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+packageCols+` FROM packages WHERE is_active = 1 ORDER BY price_cents ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SessionPackage, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Deactivate retires a package; existing purchases are unaffected.
func (r *PackageRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE packages SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
