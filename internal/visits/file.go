package visits

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/logger"
)

// FileLog stores visits as newline-delimited "visitor_id,timestamp" text.
type FileLog struct {
	path string
	log  *zap.Logger
	now  func() time.Time

	mu sync.Mutex // serializes appends
}

func NewFileLog(path string, log *zap.Logger) *FileLog {
	return &FileLog{path: path, log: log, now: time.Now}
}

func (l *FileLog) Path() string { return l.path }

// Ensure creates the log (and its directory) if it does not exist yet.
func (l *FileLog) Ensure() error {
	if _, err := os.Stat(l.path); err == nil {
		l.log.Info("visit log already exists", zap.String("path", l.path))
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create dir %s: %w", ErrWrite, dir, err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, l.path, err)
	}
	l.log.Info("visit log created", zap.String("path", l.path))
	return nil
}

func (l *FileLog) Record(ctx context.Context, visitorID string) error {
	log := logger.FromContext(ctx, l.log)
	if err := validateVisitor(visitorID); err != nil {
		log.Warn("refusing to record visit", zap.String("op", "record"), zap.String("visitor_id", visitorID), zap.Error(err))
		return err
	}

	// One Write call per line on an O_APPEND descriptor keeps lines whole.
	line := []byte(formatLine(newRecord(visitorID, l.now())) + "\n")

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return l.writeFailed(log, visitorID, "open", err)
	}
	_, werr := f.Write(line)
	cerr := f.Close()
	if werr != nil {
		return l.writeFailed(log, visitorID, "write", werr)
	}
	if cerr != nil {
		return l.writeFailed(log, visitorID, "close", cerr)
	}

	log.Debug("visit recorded", zap.String("visitor_id", visitorID), zap.String("path", l.path))
	return nil
}

func (l *FileLog) writeFailed(log *zap.Logger, visitorID, step string, err error) error {
	log.Error("failed to record visit",
		zap.String("op", "record"),
		zap.String("step", step),
		zap.String("path", l.path),
		zap.String("visitor_id", visitorID),
		zap.Error(err))
	return fmt.Errorf("%w: %s %s: %w", ErrWrite, step, l.path, err)
}

func (l *FileLog) ReadAll(ctx context.Context) ([]Record, error) {
	return collect(ctx, l.Each)
}

func (l *FileLog) Each(ctx context.Context, fn func(Record) error) error {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Debug("visit log does not exist yet", zap.String("path", l.path))
		return nil
	}
	if err != nil {
		l.log.Error("failed to open visit log", zap.String("op", "read"), zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("%w: open %s: %w", ErrRead, l.path, err)
	}
	defer f.Close()

	return scanLines(ctx, f, l.path, l.log, fn)
}

func (l *FileLog) Inspect(ctx context.Context) (Info, error) {
	info := Info{Backend: "file", Location: l.path}

	st, err := os.Stat(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("%w: stat %s: %w", ErrRead, l.path, err)
	}
	info.Exists = true
	info.SizeBytes = st.Size()

	f, err := os.Open(l.path)
	if err != nil {
		return info, fmt.Errorf("%w: open %s: %w", ErrRead, l.path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		raw, oversized, err := nextLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return info, fmt.Errorf("%w: read %s: %w", ErrRead, l.path, err)
		}
		line := strings.TrimSpace(string(raw))
		if line == "" && !oversized {
			continue
		}
		info.Lines++
		if !oversized && len(info.Sample) < sampleLines {
			info.Sample = append(info.Sample, line)
		}
	}
	return info, nil
}

func (l *FileLog) Close() error { return nil }
