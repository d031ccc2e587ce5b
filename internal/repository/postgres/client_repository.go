package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
)

type clientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) repository.ClientRepository {
	return &clientRepository{pool: pool}
}

var _ repository.ClientRepository = (*clientRepository)(nil)

const clientColumns = `
	id,
	name,
	phone,
	notes,
	barcode,
	history_token,
	telegram_chat_id,
	created_at
`

func scanClient(src scanTarget) (*model.Client, error) {
	var c model.Client
	err := src.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Notes,
		&c.Barcode,
		&c.HistoryToken,
		&c.TelegramChatID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepository) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	client, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE barcode = $1`
	client, err := scanClient(r.pool.QueryRow(ctx, query, barcode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepository) FindByHistoryToken(ctx context.Context, token string) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE history_token = $1`
	client, err := scanClient(r.pool.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE telegram_chat_id = $1`
	client, err := scanClient(r.pool.QueryRow(ctx, query, chatID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func clientFilterConditions(filter repository.ClientListFilter) (string, []any) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if filter.Keyword != nil && strings.TrimSpace(*filter.Keyword) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Keyword)+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR barcode ILIKE $%d)", len(args), len(args)))
	}
	if filter.Linked != nil {
		if *filter.Linked {
			conditions = append(conditions, "telegram_chat_id IS NOT NULL")
		} else {
			conditions = append(conditions, "telegram_chat_id IS NULL")
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *clientRepository) List(ctx context.Context, filter repository.ClientListFilter) ([]*model.Client, error) {
	where, args := clientFilterConditions(filter)
	limit, offset := normalizePagination(filter.Pagination)

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT `+clientColumns+` FROM clients%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]*model.Client, 0, limit)
	for rows.Next() {
		client, scanErr := scanClient(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *clientRepository) Count(ctx context.Context, filter repository.ClientListFilter) (int64, error) {
	where, args := clientFilterConditions(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *clientRepository) ListAll(ctx context.Context) ([]*model.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]*model.Client, 0, 64)
	for rows.Next() {
		client, scanErr := scanClient(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE clients SET name = $2, phone = $3, notes = $4 WHERE id = $1`,
		client.ID,
		client.Name,
		client.Phone,
		client.Notes,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *clientRepository) UpdateBarcode(ctx context.Context, id int64, barcode string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET barcode = $2 WHERE id = $1`, id, barcode)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *clientRepository) LinkTelegram(ctx context.Context, id int64, chatID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET telegram_chat_id = $2 WHERE id = $1`, id, chatID)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}
