package visits

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS visits (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	visitor_id TEXT NOT NULL,
	ts         TEXT NOT NULL
);`

// SQLiteLog keeps the visit log in a single append-only table. Row ids
// preserve append order.
type SQLiteLog struct {
	db   *sql.DB
	path string
	log  *zap.Logger
	now  func() time.Time
}

func OpenSQLite(path string, log *zap.Logger) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info("sqlite visit log ready", zap.String("path", path))
	return &SQLiteLog{db: db, path: path, log: log, now: time.Now}, nil
}

func (s *SQLiteLog) Record(ctx context.Context, visitorID string) error {
	log := logger.FromContext(ctx, s.log)
	if err := validateVisitor(visitorID); err != nil {
		log.Warn("refusing to record visit", zap.String("op", "record"), zap.String("visitor_id", visitorID), zap.Error(err))
		return err
	}

	rec := newRecord(visitorID, s.now())
	_, err := s.db.ExecContext(ctx, "INSERT INTO visits (visitor_id, ts) VALUES (?, ?)", rec.VisitorID, rec.Timestamp)
	if err != nil {
		log.Error("failed to record visit",
			zap.String("op", "record"),
			zap.String("path", s.path),
			zap.String("visitor_id", visitorID),
			zap.Error(err))
		return fmt.Errorf("%w: insert into %s: %w", ErrWrite, s.path, err)
	}
	return nil
}

func (s *SQLiteLog) ReadAll(ctx context.Context) ([]Record, error) {
	return collect(ctx, s.Each)
}

func (s *SQLiteLog) Each(ctx context.Context, fn func(Record) error) error {
	rows, err := s.db.QueryContext(ctx, "SELECT visitor_id, ts FROM visits ORDER BY id")
	if err != nil {
		s.log.Error("failed to query visits", zap.String("op", "read"), zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("%w: query %s: %w", ErrRead, s.path, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		var id, ts string
		if err := rows.Scan(&id, &ts); err != nil {
			return fmt.Errorf("%w: scan row %d: %w", ErrRead, n, err)
		}
		if err := emit(id+","+ts, n, s.path, s.log, fn); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate %s: %w", ErrRead, s.path, err)
	}
	return nil
}

func (s *SQLiteLog) Inspect(ctx context.Context) (Info, error) {
	info := Info{Backend: "sqlite", Location: s.path, Exists: true}
	if st, err := os.Stat(s.path); err == nil {
		info.SizeBytes = st.Size()
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&info.Lines); err != nil {
		return info, fmt.Errorf("%w: count %s: %w", ErrRead, s.path, err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT visitor_id, ts FROM visits ORDER BY id LIMIT ?", sampleLines)
	if err != nil {
		return info, fmt.Errorf("%w: sample %s: %w", ErrRead, s.path, err)
	}
	defer rows.Close()
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.VisitorID, &r.Timestamp); err != nil {
			return info, fmt.Errorf("%w: sample %s: %w", ErrRead, s.path, err)
		}
		info.Sample = append(info.Sample, formatLine(r))
	}
	return info, rows.Err()
}

func (s *SQLiteLog) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
