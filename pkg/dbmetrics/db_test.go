package dbmetrics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	operations []string
}

func (f *fakeCollector) ObserveDBQuery(operation string, _ time.Duration, _ error) {
	f.operations = append(f.operations, operation)
}

func (f *fakeCollector) SetDBPoolStats(sql.DBStats) {}

func TestGetExecutor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	assert.False(t, IsInTransaction(ctx))
	assert.Equal(t, DBExecutor(db), GetExecutor(ctx, db))

	mock.ExpectBegin()
	sqlTx, err := db.Begin()
	require.NoError(t, err)

	tx := &SqlTxWrapper{Tx: sqlTx}
	txCtx := WithTx(ctx, tx)
	assert.True(t, IsInTransaction(txCtx))
	assert.Equal(t, DBExecutor(tx), GetExecutor(txCtx, db))
}

func TestDB_ObservesQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	collector := &fakeCollector{}
	wrapped := Wrap(db, collector)

	mock.ExpectExec("UPDATE bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM availability_overrides").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = wrapped.ExecContext(context.Background(), "UPDATE bookings SET status = $1", "expired")
	require.NoError(t, err)

	tx, err := wrapped.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(context.Background(), "DELETE FROM availability_overrides WHERE id = $1", 1)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"update", "delete", "commit"}, collector.operations)
	assert.NoError(t, mock.ExpectationsWereMet())
}
