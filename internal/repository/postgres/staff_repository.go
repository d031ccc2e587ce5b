package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type staffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) repository.StaffRepository {
	return &staffRepository{pool: pool}
}

var _ repository.StaffRepository = (*staffRepository)(nil)

const staffColumns = `
	id,
	username,
	password_hash,
	role,
	created_at,
	updated_at
`

func scanStaff(src scanTarget) (*model.Staff, error) {
	var s model.Staff
	err := src.Scan(
		&s.ID,
		&s.Username,
		&s.PasswordHash,
		&s.Role,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}

	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	if staff.UpdatedAt.IsZero() {
		staff.UpdatedAt = staff.CreatedAt
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO staff (id, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		staff.ID,
		staff.Username,
		staff.PasswordHash,
		staff.Role,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	return err
}

func (r *staffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	staff, err := scanStaff(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (r *staffRepository) FindByUsername(ctx context.Context, username string) (*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE username = $1`
	staff, err := scanStaff(r.pool.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return staff, nil
}
