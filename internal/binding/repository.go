package binding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence for the configuration tables.
type Repository interface {
	// GetButtonConfig returns ErrConfigNotFound for unknown ids.
	GetButtonConfig(ctx context.Context, id int64) (*ButtonConfig, error)
	ListButtonConfigs(ctx context.Context) ([]ButtonConfig, error)
	// SaveButtonConfig inserts or replaces a configuration.
	SaveButtonConfig(ctx context.Context, c *ButtonConfig) error
	DeleteButtonConfig(ctx context.Context, id int64) error

	// GetDisplayConfig returns ErrConfigNotFound for unknown ids.
	GetDisplayConfig(ctx context.Context, id int64) (*DisplayConfig, error)
	ListDisplayConfigs(ctx context.Context) ([]DisplayConfig, error)
	// SaveDisplayConfig inserts or replaces a configuration and all its items.
	SaveDisplayConfig(ctx context.Context, c *DisplayConfig) error
	DeleteDisplayConfig(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const buttonColumns = `id, name,
	left_target_kind, left_target, left_attribute, left_on_text, left_off_text,
	left_top_text, left_broker_id, left_dim_change,
	right_target_kind, right_target, right_attribute, right_on_text, right_off_text,
	right_top_text, right_broker_id, right_dim_change,
	updated_at`

// GetButtonConfig retrieves one button configuration.
func (r *SQLiteRepository) GetButtonConfig(ctx context.Context, id int64) (*ButtonConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+buttonColumns+` FROM button_configs WHERE id = ?`, id)
	c, err := scanButtonConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: button config %d", ErrConfigNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying button config: %w", err)
	}
	return c, nil
}

// ListButtonConfigs retrieves all button configurations ordered by id.
func (r *SQLiteRepository) ListButtonConfigs(ctx context.Context) ([]ButtonConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+buttonColumns+` FROM button_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying button configs: %w", err)
	}
	defer rows.Close()

	var configs []ButtonConfig
	for rows.Next() {
		c, err := scanButtonConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning button config: %w", err)
		}
		configs = append(configs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating button configs: %w", err)
	}
	return configs, nil
}

// SaveButtonConfig inserts or replaces a button configuration.
func (r *SQLiteRepository) SaveButtonConfig(ctx context.Context, c *ButtonConfig) error {
	c.UpdatedAt = time.Now().UTC()
	args := []any{c.ID, c.Name}
	args = append(args, sideArgs(c.Left)...)
	args = append(args, sideArgs(c.Right)...)
	args = append(args, c.UpdatedAt.Format(time.RFC3339))

	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO button_configs (`+buttonColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("saving button config %d: %w", c.ID, err)
	}
	return nil
}

// DeleteButtonConfig removes a button configuration.
func (r *SQLiteRepository) DeleteButtonConfig(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM button_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting button config: %w", err)
	}
	return requireAffected(result, id)
}

// GetDisplayConfig retrieves one display configuration with its items.
func (r *SQLiteRepository) GetDisplayConfig(ctx context.Context, id int64) (*DisplayConfig, error) {
	var c DisplayConfig
	var updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, updated_at FROM display_configs WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: display config %d", ErrConfigNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying display config: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	items, err := r.displayItems(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

// ListDisplayConfigs retrieves all display configurations ordered by id.
func (r *SQLiteRepository) ListDisplayConfigs(ctx context.Context) ([]DisplayConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM display_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying display configs: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning display config id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating display configs: %w", err)
	}

	configs := make([]DisplayConfig, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetDisplayConfig(ctx, id)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *c)
	}
	return configs, nil
}

// SaveDisplayConfig replaces a display configuration and its items in one
// transaction.
func (r *SQLiteRepository) SaveDisplayConfig(ctx context.Context, c *DisplayConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	c.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO display_configs (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		c.ID, c.Name, c.UpdatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("saving display config %d: %w", c.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM display_items WHERE config_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clearing display items: %w", err)
	}
	for i, item := range c.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO display_items (config_id, position, device, attribute, label, unit, x, y, width, broker_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, i, item.Device, item.Attribute, item.Label, item.Unit,
			item.X, item.Y, item.Width, item.BrokerID); err != nil {
			return fmt.Errorf("saving display item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing display config: %w", err)
	}
	return nil
}

// DeleteDisplayConfig removes a display configuration and its items.
func (r *SQLiteRepository) DeleteDisplayConfig(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM display_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting display config: %w", err)
	}
	return requireAffected(result, id)
}

func (r *SQLiteRepository) displayItems(ctx context.Context, configID int64) ([]DisplayItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device, attribute, label, unit, x, y, width, broker_id
		FROM display_items WHERE config_id = ? ORDER BY position`, configID)
	if err != nil {
		return nil, fmt.Errorf("querying display items: %w", err)
	}
	defer rows.Close()

	var items []DisplayItem
	for rows.Next() {
		var it DisplayItem
		if err := rows.Scan(&it.Device, &it.Attribute, &it.Label, &it.Unit,
			&it.X, &it.Y, &it.Width, &it.BrokerID); err != nil {
			return nil, fmt.Errorf("scanning display item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating display items: %w", err)
	}
	return items, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanButtonConfig(scanner rowScanner) (*ButtonConfig, error) {
	var c ButtonConfig
	var leftKind, rightKind, updatedAt string
	err := scanner.Scan(
		&c.ID, &c.Name,
		&leftKind, &c.Left.Target, &c.Left.Attribute, &c.Left.OnText, &c.Left.OffText,
		&c.Left.TopText, &c.Left.BrokerID, &c.Left.DimChange,
		&rightKind, &c.Right.Target, &c.Right.Attribute, &c.Right.OnText, &c.Right.OffText,
		&c.Right.TopText, &c.Right.BrokerID, &c.Right.DimChange,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Left.TargetKind = TargetKind(leftKind)
	c.Right.TargetKind = TargetKind(rightKind)
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &c, nil
}

func sideArgs(s SideConfig) []any {
	kind := s.TargetKind
	if kind == "" {
		kind = KindNone
	}
	dim := s.DimChange
	if dim == "" {
		dim = "0"
	}
	return []any{string(kind), s.Target, s.Attribute, s.OnText, s.OffText, s.TopText, s.BrokerID, dim}
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrConfigNotFound, id)
	}
	return nil
}
