package driver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cqlio/dsbulk/internal/codec"
	"github.com/cqlio/dsbulk/internal/statement"
)

// Driver is the contract the Bulk Executor consumes: prepare/execute
// async statements, expose routing key/replica hints, surface a typed
// codec registry. The core spec treats this as an out-of-scope external
// collaborator contract; PGDriver is this module's one concrete, tested
// implementation of it.
type Driver interface {
	// Execute runs a single write statement (or batch of statements, in
	// which case they are sent as one round trip where the backing
	// store supports it).
	Execute(ctx context.Context, s *statement.Statement) error
	ExecuteBatch(ctx context.Context, b *statement.Batch) error
	// Query runs a read statement and returns every resulting row.
	Query(ctx context.Context, s *statement.Statement) ([]statement.Row, error)
	Close()
}

// PGDriver adapts a Session (pgxpool-backed) to the Driver contract,
// converting codec internal values to pgx/pgtype-compatible parameters
// on the way in and pgx row values back to codec internal values on the
// way out.
type PGDriver struct {
	session *Session
	policy  RetryPolicy
}

// NewPGDriver builds a PGDriver over an already-connected Session.
func NewPGDriver(session *Session, policy RetryPolicy) *PGDriver {
	return &PGDriver{session: session, policy: policy}
}

func (d *PGDriver) Execute(ctx context.Context, s *statement.Statement) error {
	args, err := bindArgs(s)
	if err != nil {
		return fmt.Errorf("driver: binding statement: %w", err)
	}
	return ExecWithRetry(ctx, d.policy, func() error {
		_, err := d.session.Pool().Exec(ctx, s.Template, args...)
		return err
	})
}

func (d *PGDriver) ExecuteBatch(ctx context.Context, b *statement.Batch) error {
	pgBatch := &pgxBatchAdapter{}
	for _, s := range b.Statements {
		args, err := bindArgs(s)
		if err != nil {
			return fmt.Errorf("driver: binding batched statement: %w", err)
		}
		pgBatch.queue(s.Template, args)
	}
	return ExecWithRetry(ctx, d.policy, func() error {
		return pgBatch.send(ctx, d.session.Pool())
	})
}

func (d *PGDriver) Query(ctx context.Context, s *statement.Statement) ([]statement.Row, error) {
	args, err := bindArgs(s)
	if err != nil {
		return nil, fmt.Errorf("driver: binding statement: %w", err)
	}

	var rows []statement.Row
	err = ExecWithRetry(ctx, d.policy, func() error {
		rows = nil
		pgRows, err := d.session.Pool().Query(ctx, s.Template, args...)
		if err != nil {
			return err
		}
		defer pgRows.Close()

		fields := pgRows.FieldDescriptions()
		for pgRows.Next() {
			values, err := pgRows.Values()
			if err != nil {
				return err
			}
			row := make(statement.Row, len(fields))
			for i, f := range fields {
				row[string(f.Name)] = fromDriverValue(values[i])
			}
			rows = append(rows, row)
		}
		return pgRows.Err()
	})
	return rows, err
}

func (d *PGDriver) Close() {
	d.session.Close()
}

// bindArgs orders a statement's bound values for positional placeholders
// ($1, $2, ...) using VariableOrder, the mapper's declared binding order
// — map iteration order is not stable, so Values alone cannot drive
// positional binding. A variable missing from Values (allowed-missing
// field) is skipped.
func bindArgs(s *statement.Statement) ([]interface{}, error) {
	args := make([]interface{}, 0, len(s.VariableOrder))
	for _, name := range s.VariableOrder {
		v, ok := s.Values[name]
		if !ok {
			continue
		}
		converted, err := toDriverValue(v)
		if err != nil {
			return nil, err
		}
		args = append(args, converted)
	}
	return args, nil
}

// toDriverValue converts one codec internal value into a pgx/pgtype
// parameter. Scalars pgx already understands natively (string, bool,
// int32, int64, float64, time.Time, []byte) pass through unchanged;
// everything the codec layer invented (decimal.Decimal, geometry,
// collections) gets a pgtype or JSON encoding.
func toDriverValue(v interface{}) (interface{}, error) {
	if codec.IsNull(v) {
		return nil, nil
	}
	switch x := v.(type) {
	case decimal.Decimal:
		var n pgtype.Numeric
		if err := n.Set(x.String()); err != nil {
			return nil, fmt.Errorf("driver: converting decimal %s: %w", x.String(), err)
		}
		return n, nil
	case uuid.UUID:
		return pgtype.UUID{Bytes: x, Status: pgtype.Present}, nil
	case codec.Point, codec.LineString, codec.Polygon:
		// The mapper binds the geo codecs' internal shapes as they
		// are, so geometry values arrive here as Point, LineString or
		// Polygon; they are sent as JSON, not as WKT text.
		encoded, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("driver: encoding geometry: %w", err)
		}
		return pgtype.JSONB{Bytes: encoded, Status: pgtype.Present}, nil
	case []interface{}:
		encoded, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("driver: encoding collection: %w", err)
		}
		return pgtype.JSONB{Bytes: encoded, Status: pgtype.Present}, nil
	default:
		return v, nil
	}
}

// fromDriverValue converts a pgx-returned value back into a codec
// internal value for the inverse mapper on UNLOAD.
func fromDriverValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return codec.Null{}
	default:
		return x
	}
}

// pgxBatchAdapter accumulates queued statements and send executes them
// one Exec (one round trip) at a time, stopping at the first error; kept
// minimal and separate from pgx.Batch so this file stays readable without
// importing pgx's core package alongside pgx/v4/pgxpool.
type pgxBatchAdapter struct {
	queries []string
	args    [][]interface{}
}

func (b *pgxBatchAdapter) queue(query string, args []interface{}) {
	b.queries = append(b.queries, query)
	b.args = append(b.args, args)
}

func (b *pgxBatchAdapter) send(ctx context.Context, pool *pgxpool.Pool) error {
	for i, q := range b.queries {
		if _, err := pool.Exec(ctx, q, b.args[i]...); err != nil {
			return err
		}
	}
	return nil
}
