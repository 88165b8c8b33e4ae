package visits

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Options struct {
	Backend    string // file|sqlite|redis
	File       string
	SQLitePath string
	Redis      RedisOptions
}

// New opens the configured backend. A file log that cannot be created is
// still returned: the failure is logged and recording degrades to no-ops
// until the path becomes writable.
func New(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	switch opts.Backend {
	case "", "file":
		l := NewFileLog(opts.File, log)
		if err := l.Ensure(); err != nil {
			log.Error("failed to create visit log", zap.String("op", "ensure"), zap.String("path", opts.File), zap.Error(err))
		}
		return l, nil
	case "sqlite":
		return OpenSQLite(opts.SQLitePath, log)
	case "redis":
		return DialRedis(ctx, opts.Redis, log)
	default:
		return nil, fmt.Errorf("unknown visit backend %q", opts.Backend)
	}
}
