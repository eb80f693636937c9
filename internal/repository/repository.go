package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// UserRepository handles the interactions with the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

// GetUserByUsername fetches a user by its unique username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	query := `SELECT id, username, password, role FROM users WHERE username = ?`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password, &user.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found", username)
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, password, role) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Password, user.Role)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	user.ID = int(id)
	return user, nil
}

// DeductionRepository persists the deduction profile. A single row holds
// the current profile; saving overwrites it (last write wins).
type DeductionRepository struct {
	db *sql.DB
}

func NewDeductionRepository(db *sql.DB) *DeductionRepository {
	return &DeductionRepository{db}
}

// GetProfile fetches the configured deduction profile.
func (r *DeductionRepository) GetProfile(ctx context.Context) (*entity.DeductionProfile, error) {
	var p entity.DeductionProfile
	query := `SELECT id, fixed_cost_ratio, tax_rate, card_fee_rate, royalty_rate FROM deduction_profiles WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).Scan(&p.ID, &p.FixedCostRatio, &p.TaxRate, &p.CardFeeRate, &p.RoyaltyRate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// SaveProfile overwrites the configured deduction profile.
func (r *DeductionRepository) SaveProfile(ctx context.Context, p *entity.DeductionProfile) error {
	query := `
		INSERT INTO deduction_profiles (id, fixed_cost_ratio, tax_rate, card_fee_rate, royalty_rate)
		VALUES (1, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			fixed_cost_ratio = VALUES(fixed_cost_ratio),
			tax_rate = VALUES(tax_rate),
			card_fee_rate = VALUES(card_fee_rate),
			royalty_rate = VALUES(royalty_rate)`
	_, err := r.db.ExecContext(ctx, query, p.FixedCostRatio, p.TaxRate, p.CardFeeRate, p.RoyaltyRate)
	return err
}

// DatasetRepository persists the canonical dataset so it survives a
// restart. The in-memory copy owned by the service layer stays
// authoritative; replaces are full rewrites inside one transaction.
type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db}
}

// ReplaceAll swaps the stored dataset for the given rows atomically.
func (r *DatasetRepository) ReplaceAll(ctx context.Context, ds entity.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	insert := `INSERT INTO products (name, quantity, unit_cost, unit_price, revenue) VALUES (?, ?, ?, ?, ?)`
	for _, rec := range ds {
		if _, err := tx.ExecContext(ctx, insert, rec.Name, rec.Quantity, rec.UnitCost, rec.UnitPrice, rec.Revenue); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAll loads the stored dataset in insertion order.
func (r *DatasetRepository) GetAll(ctx context.Context) (entity.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, quantity, unit_cost, unit_price, revenue FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ds entity.Dataset
	for rows.Next() {
		var rec entity.ProductRecord
		if err := rows.Scan(&rec.Name, &rec.Quantity, &rec.UnitCost, &rec.UnitPrice, &rec.Revenue); err != nil {
			return nil, err
		}
		ds = append(ds, rec)
	}
	return ds, rows.Err()
}
