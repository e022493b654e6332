// Package store archives received telegrams in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/robotalks/wmbus.go/pkg/wmbus/telegram"
)

const schema = `
CREATE TABLE IF NOT EXISTS telegrams (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	receiver     TEXT NOT NULL,
	received_at  INTEGER NOT NULL,
	options      INTEGER NOT NULL,
	frame_type   TEXT NOT NULL,
	rssi         INTEGER,
	timestamp    REAL,
	manufacturer TEXT NOT NULL,
	device_id    TEXT NOT NULL,
	version      INTEGER,
	device_type  INTEGER,
	link_layer   BLOB,
	payload      BLOB,
	incomplete   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS telegrams_device ON telegrams(manufacturer, device_id, received_at);
`

// Record is an archived telegram.
type Record struct {
	ID           int64
	Receiver     string
	ReceivedAt   time.Time
	Options      uint16
	FrameType    string
	RSSI         *int8
	Timestamp    *float64
	Manufacturer string
	DeviceID     string
	Version      *byte
	DeviceType   *byte
	LinkLayer    []byte
	Payload      []byte
	Incomplete   bool
}

// Store is the telegram archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Insert archives a telegram and returns the record id.
func (s *Store) Insert(ctx context.Context, ev *telegram.Event) (int64, error) {
	t := ev.Telegram
	var rssi interface{}
	if t.RSSI != nil {
		rssi = int64(*t.RSSI)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO telegrams(receiver, received_at, options, frame_type, rssi, timestamp,
			manufacturer, device_id, version, device_type, link_layer, payload, incomplete)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.Receiver, ev.ReceivedAt.UnixMilli(), int64(t.Options), t.FrameType.String(), rssi,
		nullable(t.Timestamp), t.Manufacturer, t.DeviceID, nullable(t.Version), nullable(t.DeviceType),
		t.LinkLayer, t.Payload, t.Incomplete)
	if err != nil {
		return 0, fmt.Errorf("insert telegram: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get telegram id: %w", err)
	}
	return id, nil
}

// HandleTelegram implements bus.Sink.
func (s *Store) HandleTelegram(ctx context.Context, ev *telegram.Event) error {
	_, err := s.Insert(ctx, ev)
	return err
}

// Filter selects records for ListRecent, empty fields match everything.
type Filter struct {
	Manufacturer string
	DeviceID     string
	Limit        int
}

// DefaultLimit is used when Filter.Limit is not positive.
const DefaultLimit = 100

// ListRecent lists the most recent records, oldest first.
func (s *Store) ListRecent(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, receiver, received_at, options, frame_type, rssi, timestamp,
			manufacturer, device_id, version, device_type, link_layer, payload, incomplete
		FROM telegrams
		WHERE (? = '' OR manufacturer = ?) AND (? = '' OR device_id = ?)
		ORDER BY received_at DESC, id DESC
		LIMIT ?
	`, f.Manufacturer, f.Manufacturer, f.DeviceID, f.DeviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list telegrams: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telegrams: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		r              Record
		at, options    int64
		rssi, ver, typ sql.NullInt64
		ts             sql.NullFloat64
	)
	if err := rows.Scan(&r.ID, &r.Receiver, &at, &options, &r.FrameType, &rssi, &ts,
		&r.Manufacturer, &r.DeviceID, &ver, &typ, &r.LinkLayer, &r.Payload, &r.Incomplete); err != nil {
		return r, fmt.Errorf("scan telegram: %w", err)
	}
	r.ReceivedAt = time.UnixMilli(at)
	r.Options = uint16(options)
	if rssi.Valid {
		v := int8(rssi.Int64)
		r.RSSI = &v
	}
	if ts.Valid {
		r.Timestamp = &ts.Float64
	}
	if ver.Valid {
		v := byte(ver.Int64)
		r.Version = &v
	}
	if typ.Valid {
		v := byte(typ.Int64)
		r.DeviceType = &v
	}
	return r, nil
}
