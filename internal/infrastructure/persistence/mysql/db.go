package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/infrastructure/config"
)

// DB wraps a MySQL database connection with health checking.
type DB struct {
	conn   *sql.DB
	config *config.MySQLConfig
}

// NewDB creates a new MySQL database connection with connection pooling.
func NewDB(cfg *config.MySQLConfig) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config is required")
	}

	dsn := buildDSN(
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.Username,
		cfg.Password,
		cfg.Charset,
		cfg.ParseTime,
		cfg.Timeout,
	)

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	conn.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{conn: conn, config: cfg}, nil
}

// buildDSN constructs a MySQL DSN string.
// Format: user:password@tcp(host:port)/database?params
func buildDSN(host string, port int, database, username, password, charset string, parseTime bool, timeout time.Duration) string {
	params := url.Values{}
	params.Set("charset", charset)
	params.Set("parseTime", fmt.Sprintf("%t", parseTime))
	params.Set("timeout", timeout.String())
	params.Set("loc", "UTC")

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		username,
		password,
		host,
		port,
		database,
		params.Encode(),
	)
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks connectivity to the database.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("closing mysql: %w", err)
	}
	return nil
}

// DBStats holds connection pool statistics.
type DBStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics for monitoring.
func (db *DB) Stats() DBStats {
	s := db.conn.Stats()
	return DBStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}
}
