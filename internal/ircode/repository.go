package ircode

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines persistence for IR command libraries.
type Repository interface {
	// ListByDevice returns every stored command for a device.
	ListByDevice(ctx context.Context, deviceID string) ([]Code, error)

	// Upsert inserts or replaces a command keyed by (device, category, name).
	Upsert(ctx context.Context, deviceID string, code *Code) error

	// DeleteAll removes every command for a device and returns the count.
	DeleteAll(ctx context.Context, deviceID string) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListByDevice returns every stored command for a device.
func (r *SQLiteRepository) ListByDevice(ctx context.Context, deviceID string) ([]Code, error) {
	query := `
		SELECT category, name, payload, protocol, bits, frequency,
		       provenance, created_at, updated_at
		FROM ir_codes WHERE device_id = ?
		ORDER BY category, name`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying ir codes: %w", err)
	}
	defer rows.Close()

	var codes []Code
	for rows.Next() {
		var (
			c          Code
			category   string
			provenance string
			protocol   sql.NullString
			bits       sql.NullInt64
			frequency  sql.NullInt64
			createdAt  string
			updatedAt  string
		)
		err := rows.Scan(&category, &c.Name, &c.Payload, &protocol, &bits,
			&frequency, &provenance, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning ir code row: %w", err)
		}

		c.Category = Category(category)
		c.Provenance = Provenance(provenance)
		if protocol.Valid {
			c.Protocol = protocol.String
		}
		if bits.Valid {
			c.Bits = int(bits.Int64)
		}
		if frequency.Valid {
			c.Frequency = int(frequency.Int64)
		}
		// Timestamp format is controlled by this package
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
		c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

		codes = append(codes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ir codes: %w", err)
	}
	return codes, nil
}

// Upsert inserts or replaces a command keyed by (device, category, name).
func (r *SQLiteRepository) Upsert(ctx context.Context, deviceID string, c *Code) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO ir_codes (
			device_id, category, name, payload, protocol, bits, frequency,
			provenance, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, category, name) DO UPDATE SET
			payload = excluded.payload,
			protocol = excluded.protocol,
			bits = excluded.bits,
			frequency = excluded.frequency,
			provenance = excluded.provenance,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		deviceID,
		string(c.Category),
		c.Name,
		c.Payload,
		nullableString(c.Protocol),
		nullableInt(c.Bits),
		nullableInt(c.Frequency),
		string(c.Provenance),
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting ir code: %w", err)
	}
	return nil
}

// DeleteAll removes every command for a device and returns the count.
func (r *SQLiteRepository) DeleteAll(ctx context.Context, deviceID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ir_codes WHERE device_id = ?`, deviceID)
	if err != nil {
		return 0, fmt.Errorf("deleting ir codes: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking delete result: %w", err)
	}
	return int(affected), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
