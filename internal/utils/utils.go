package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// ParseDurationEnv parses an env value as time.Duration:
// - "10s", "5m" etc. (time.ParseDuration)
// - bare number "10" = seconds (10s)
func ParseDurationEnv(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// ParseRedisURL extracts host:port, password and DB from a redis:// or rediss:// URL.
func ParseRedisURL(s string) (addr, password string, db int, err error) {
	opts, err := redis.ParseURL(strings.TrimSpace(s))
	if err != nil {
		return "", "", 0, err
	}
	return opts.Addr, opts.Password, opts.DB, nil
}

// PGCode returns the SQLSTATE of a PostgreSQL error, if err carries one.
func PGCode(err error) (string, bool) {
	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		return pge.Code, true
	}
	return "", false
}

// IsPGConnectionError reports whether err means the server could not be reached
// or dropped the connection (dial failures, pgx timeouts, expired deadlines, SQLSTATE class 08).
func IsPGConnectionError(err error) bool {
	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	code, ok := PGCode(err)
	return ok && strings.HasPrefix(code, "08")
}
