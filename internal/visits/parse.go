package visits

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single persisted line.
const maxLineBytes = 64 * 1024

func formatLine(r Record) string {
	return r.VisitorID + "," + r.Timestamp
}

// parseLine splits on the first comma. ok is false when the line has no
// visitor id; a missing timestamp still counts as a visit.
func parseLine(line string) (rec Record, ok bool) {
	id, ts, _ := strings.Cut(strings.TrimRight(line, "\r"), ",")
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, false
	}
	return Record{VisitorID: id, Timestamp: strings.TrimSpace(ts)}, true
}

// scanLines feeds every well-formed line of r to fn. Malformed lines,
// including ones longer than maxLineBytes, are logged and skipped without
// stopping the scan.
func scanLines(ctx context.Context, r io.Reader, source string, log *zap.Logger, fn func(Record) error) error {
	br := bufio.NewReader(r)

	lineNum := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, oversized, err := nextLine(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read %s at line %d: %w", ErrRead, source, lineNum+1, err)
		}
		lineNum++
		if oversized {
			log.Warn("skipping malformed visit line",
				zap.String("path", source),
				zap.Int("line", lineNum),
				zap.String("reason", "line too long"))
			continue
		}
		if err := emit(string(line), lineNum, source, log, fn); err != nil {
			return err
		}
	}
}

// nextLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed up to its newline and reported as oversized
// with no content. io.EOF is returned only when nothing is left.
func nextLine(br *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	size := 0
	for {
		chunk, err := br.ReadSlice('\n')
		size += len(chunk)
		if size <= maxLineBytes+1 {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, false, err
		}
		if size == 0 {
			return nil, false, io.EOF
		}

		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			size--
		}
		if size > maxLineBytes {
			return nil, true, nil
		}
		return line[:size], false, nil
	}
}

func emit(line string, lineNum int, source string, log *zap.Logger, fn func(Record) error) error {
	rec, ok := parseLine(line)
	if !ok {
		if strings.TrimSpace(line) == "" {
			log.Debug("skipping empty visit line", zap.String("path", source), zap.Int("line", lineNum))
		} else {
			log.Warn("skipping malformed visit line",
				zap.String("path", source),
				zap.Int("line", lineNum),
				zap.String("content", line))
		}
		return nil
	}
	return fn(rec)
}
