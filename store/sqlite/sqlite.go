package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"luxvision/models"
)

const (
	DefaultFilename = "luxvision.sqlite"
	InmemPath       = ":memory:"
)

// SqlStore is the sqlite implementation of services.Store.
type SqlStore struct {
	Mu   sync.Mutex
	DB   *sqlx.DB
	log  *zap.Logger
	path string
}

// NewSqlStore opens the database at path. Use InmemPath for a throwaway database.
func NewSqlStore(path string, log *zap.Logger) (*SqlStore, error) {
	dsn := path + "?_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"
	if path != InmemPath {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; an in-memory database also only lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Resources opened", zap.String("path", path))

	return &SqlStore{
		DB:   db,
		log:  log,
		path: path,
	}, nil
}

// Close the connection to the sqlite database
func (s *SqlStore) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("failed to close sqlite database: %w", err)
	}
	return nil
}

func (s *SqlStore) userVersion() (int, error) {
	var v int
	if err := s.DB.Get(&v, `PRAGMA user_version`); err != nil {
		return 0, err
	}
	return v, nil
}

// execTrans executes stmt and bumps user_version to version in a single transaction.
func (s *SqlStore) execTrans(ctx context.Context, stmt string, version int) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, version)); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// inTx runs fn in a transaction, committing when fn returns nil.
func (s *SqlStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SqlStore) get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func (s *SqlStore) sel(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b sq.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

type sqlizer interface {
	ToSql() (string, []interface{}, error)
}

func (s *SqlStore) exec(ctx context.Context, e sqlx.ExecerContext, b sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}

// wrapErr maps driver errors to API error codes.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var perr *models.Error
	if errors.As(err, &perr) {
		if perr.Op == "" {
			return &models.Error{Code: perr.Code, Msg: perr.Msg, Op: op, Err: perr}
		}
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &models.Error{Code: models.ENotFound, Msg: models.ErrNotFound.Msg, Op: op, Err: err}
	}

	if isUniqueViolation(err) {
		return &models.Error{Code: models.EConflict, Msg: models.ErrDuplicate.Msg, Op: op, Err: err}
	}

	return &models.Error{Code: models.EInternal, Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func uniqueIndexViolated(err error, column string) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), column)
}
