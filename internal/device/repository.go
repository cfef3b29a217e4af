package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// GetByTopic retrieves a device by its bus topic.
	// Returns ErrDeviceNotFound if no device claims the topic.
	GetByTopic(ctx context.Context, topic string) (*Device, error)

	// List retrieves all devices.
	List(ctx context.Context) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists,
	// or ErrTopicExists if the bus topic is already claimed.
	Create(ctx context.Context, device *Device) error

	// Update modifies an existing device.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, device *Device) error

	// Delete removes a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, id string) error

	// UpdateAvailability updates the availability and last seen timestamp.
	// This is optimised for frequent updates from bus availability topics.
	UpdateAvailability(ctx context.Context, id string, availability Availability, lastSeen time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, name, slug, topic, manufacturer, supported_models,
	controller, availability, last_seen, created_at, updated_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// GetByTopic retrieves a device by its bus topic.
func (r *SQLiteRepository) GetByTopic(ctx context.Context, topic string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE topic = ?`

	row := r.db.QueryRowContext(ctx, query, topic)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by topic: %w", err)
	}
	return d, nil
}

// List retrieves all devices ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	modelsJSON, err := json.Marshal(d.SupportedModels)
	if err != nil {
		return fmt.Errorf("marshalling supported_models: %w", err)
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `
		INSERT INTO devices (
			id, name, slug, topic, manufacturer, supported_models,
			controller, availability, last_seen, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.Slug,
		d.Topic,
		d.Manufacturer,
		string(modelsJSON),
		d.Controller,
		string(d.Availability),
		nullableTime(d.LastSeen),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "devices.topic"):
			return ErrTopicExists
		case strings.Contains(msg, "UNIQUE constraint"):
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// Update modifies an existing device.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	modelsJSON, err := json.Marshal(d.SupportedModels)
	if err != nil {
		return fmt.Errorf("marshalling supported_models: %w", err)
	}

	d.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE devices SET
			name = ?, slug = ?, topic = ?, manufacturer = ?, supported_models = ?,
			controller = ?, availability = ?, last_seen = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		d.Name,
		d.Slug,
		d.Topic,
		d.Manufacturer,
		string(modelsJSON),
		d.Controller,
		string(d.Availability),
		nullableTime(d.LastSeen),
		d.UpdatedAt.Format(time.RFC3339),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device by ID.
// IR codes for the device are removed by the ON DELETE CASCADE constraint.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateAvailability updates the availability and last seen timestamp.
func (r *SQLiteRepository) UpdateAvailability(ctx context.Context, id string, availability Availability, lastSeen time.Time) error {
	query := `
		UPDATE devices SET availability = ?, last_seen = ?, updated_at = ?
		WHERE id = ?`

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx, query,
		string(availability),
		lastSeen.UTC().Format(time.RFC3339),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("updating availability: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking availability update result: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanDevice.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row into a Device struct.
func scanDevice(row rowScanner) (*Device, error) {
	var (
		d            Device
		modelsJSON   string
		availability string
		lastSeen     sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Slug,
		&d.Topic,
		&d.Manufacturer,
		&modelsJSON,
		&d.Controller,
		&availability,
		&lastSeen,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if modelsJSON != "" && modelsJSON != "null" {
		if err := json.Unmarshal([]byte(modelsJSON), &d.SupportedModels); err != nil {
			return nil, fmt.Errorf("unmarshalling supported_models: %w", err)
		}
	}

	d.Availability = Availability(availability)

	if lastSeen.Valid && lastSeen.String != "" {
		ts, err := time.Parse(time.RFC3339, lastSeen.String)
		if err == nil {
			d.LastSeen = &ts
		}
	}

	// Timestamp format is controlled by this package
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &d, nil
}

// nullableTime converts a *time.Time to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
