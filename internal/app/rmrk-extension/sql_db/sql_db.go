package sql_db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	driverPostgres = "postgres"

	// SQLSTATE reported by postgres when a serializable transaction conflicts with a concurrent one.
	serializationFailure = "40001"

	maxTxAttempts = 5
)

func NewSqlDB(db *sqlx.DB) *SqlDB {
	return &SqlDB{DB: db}
}

// SqlDB stores the engine state in postgres or sqlite. Transactions started through one SqlDB run one at a
// time; on postgres they also run SERIALIZABLE so hosts sharing a database cannot interleave their
// read-then-write steps. A transaction postgres aborts with a serialization failure is retried.
type SqlDB struct {
	*sqlx.DB
	mu sync.Mutex
}

// ExecuteTx runs callback inside one database transaction and rolls it back if the callback fails or panics.
// The callback may run more than once.
func (sdb *SqlDB) ExecuteTx(ctx context.Context, callback func(engine.Tx) error) error {
	sdb.mu.Lock()
	defer sdb.mu.Unlock()

	for attempt := 1; ; attempt++ {
		err := sdb.executeTx(ctx, callback)
		if !isSerializationFailure(err) || attempt == maxTxAttempts || ctx.Err() != nil {
			return err
		}
		log.Warn().Msgf("retrying tx after serialization failure (attempt %d): %s", attempt, err)
	}
}

func (sdb *SqlDB) executeTx(ctx context.Context, callback func(engine.Tx) error) (retErr error) {
	tx, err := sdb.BeginTxx(ctx, sdb.txOptions())
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error().Err(fmt.Errorf("error while executing tx: %v\nerror while making rollback: %s", retErr, err)).Send()
		}
	}()

	if retErr = callback(&DbTx{tx}); retErr != nil {
		return
	}

	if retErr = tx.Commit(); retErr != nil {
		return
	}
	committed = true

	return nil
}

func (sdb *SqlDB) txOptions() *sql.TxOptions {
	if sdb.DriverName() == driverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	// sqlite transactions are serializable already
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == serializationFailure
}

type DbTx struct {
	*sqlx.Tx
}
