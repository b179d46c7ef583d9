package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/table"
)

// Supported dialects.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// Client runs queries against a database.
type Client struct {
	db     *gorm.DB
	logger *cocogo.Logger
}

type options struct {
	logger *cocogo.Logger
	debug  bool
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *cocogo.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = cocogo.NoopLogger()
		}
		o.logger = l
	}
}

// WithDebug enables gorm's statement logging.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

func applyOptions(optFns []Option) options {
	o := options{logger: cocogo.NoopLogger()}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Open connects to a database. dialect is "sqlite" or "mysql"; dsn is passed
// to the driver unchanged.
func Open(dialect, dsn string, optFns ...Option) (*Client, error) {
	o := applyOptions(optFns)

	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, &cocogo.ValidationError{
			Field:  "dialect",
			Reason: fmt.Sprintf("unsupported dialect %q", dialect),
		}
	}

	level := gormlogger.Silent
	if o.debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	return &Client{db: db, logger: o.logger}, nil
}

// NewClient wraps an existing gorm connection.
func NewClient(db *gorm.DB, optFns ...Option) *Client {
	o := applyOptions(optFns)
	return &Client{db: db, logger: o.logger}
}

// DB returns the underlying gorm connection.
func (c *Client) DB() *gorm.DB { return c.db }

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Run executes q and returns its rows as a table. NULL values are absent
// from the returned rows. A query without rows fails with a
// *cocogo.EmptyResultError.
func (c *Client) Run(ctx context.Context, q Query) (t *table.Table, err error) {
	start := time.Now()
	defer func() {
		n := 0
		if t != nil {
			n = t.Len()
		}
		c.logger.LogQuery(ctx, n, time.Since(start), err)
	}()

	rows, err := c.db.WithContext(ctx).Raw(q.Statement, q.Args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("error running query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []table.Row
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning row %d: %w", len(result), err)
		}
		row := make(table.Row, len(columns))
		for i, v := range values {
			if v.Valid {
				row[columns[i]] = v.String
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, &cocogo.EmptyResultError{Statement: q.Statement}
	}
	return table.New(columns, result)
}
