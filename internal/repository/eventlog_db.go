package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/telemetry/internal/errors"
	models "github.com/Schera-ole/telemetry/internal/model"
)

const insertAuditLog = `INSERT INTO audit_logs
	(actor_id, action, resource, status, ip_address, country, user_agent, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

// DBEventLog stores audit records in PostgreSQL.
type DBEventLog struct {
	db *sql.DB
}

func NewDBEventLog(dsn string) (*DBEventLog, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBEventLog{db: dbConnect}, nil
}

// NewDBEventLogWithDB wraps an already opened database handle.
func NewDBEventLogWithDB(db *sql.DB) *DBEventLog {
	return &DBEventLog{db: db}
}

func (storage *DBEventLog) Close() error {
	return storage.db.Close()
}

// Insert appends one row. Each record is independent: no batching, no transaction.
func (storage *DBEventLog) Insert(ctx context.Context, record models.EventLogRecord) (int64, error) {
	var metadata any
	if record.Metadata != "" {
		metadata = record.Metadata
	}

	var id int64
	err := storage.db.QueryRowContext(ctx, insertAuditLog,
		record.ActorID,
		string(record.Action),
		nullString(record.Resource),
		string(record.Status),
		record.IPAddress,
		record.Country,
		nullString(record.UserAgent),
		metadata,
		record.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isConnectionError(err) {
			return 0, fmt.Errorf("error saving audit record: %w: %w", internalerrors.ErrStorageUnavailable, err)
		}
		return 0, fmt.Errorf("error saving audit record: %w", err)
	}
	return id, nil
}

func (storage *DBEventLog) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func isConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}
	return errors.Is(err, sql.ErrConnDone)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
