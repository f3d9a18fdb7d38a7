package sql_db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

var (
	alice   = types.NewAccountID("alice")
	bob     = types.NewAccountID("bob")
	asAlice = types.CallContext{Caller: alice}
)

func setupSqliteDB(t *testing.T) *SqlDB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db.DB, "sqlite3"))
	return NewSqlDB(db)
}

func TestRecordsRoundTrip(t *testing.T) {
	sdb := setupSqliteDB(t)
	ctx := context.Background()

	recipient := bob
	collection := types.Collection{
		ID: 4,
		CollectionInfo: types.CollectionInfo{
			Issuer:    alice,
			Metadata:  []byte("ipfs://collection"),
			Max:       types.Uint32Ptr(10),
			Symbol:    []byte("ROO"),
			NftsCount: 2,
		},
		NextNftID: 2,
	}
	parent := types.NFT{
		NFTKey: types.NFTKey{CollectionID: 4, NftID: 0},
		NFTInfo: types.NFTInfo{
			Owner:            types.AccountOwner{Account: alice},
			RoyaltyRecipient: &recipient,
			Royalty:          types.Uint8Ptr(7),
			Metadata:         []byte("ipfs://parent"),
			Transferable:     true,
		},
		Locked:         true,
		NextResourceID: 1,
	}
	child := types.NFT{
		NFTKey: types.NFTKey{CollectionID: 4, NftID: 1},
		NFTInfo: types.NFTInfo{
			Owner:    types.NFTOwner{CollectionID: 4, NftID: 0},
			Metadata: []byte("ipfs://child"),
		},
	}
	resource := types.Resource{
		NFTKey: parent.NFTKey,
		ResourceInfo: types.ResourceInfo{
			ID:         0,
			Priority:   3,
			Metadata:   []byte("ipfs://res"),
			Properties: []byte{0x01, 0x02},
			Equip:      &types.EquipBinding{BaseID: 5, SlotID: 6},
		},
	}

	err := sdb.ExecuteTx(ctx, func(tx engine.Tx) error {
		require.NoError(t, tx.PutCollection(ctx, collection))
		require.NoError(t, tx.PutNFT(ctx, parent))
		require.NoError(t, tx.PutNFT(ctx, child))
		require.NoError(t, tx.PutResource(ctx, resource))
		return tx.SetCollectionIndex(ctx, 5)
	})
	require.NoError(t, err)

	err = sdb.ExecuteTx(ctx, func(tx engine.Tx) error {
		index, err := tx.CollectionIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, types.CollectionID(5), index)

		gotCollection, found, err := tx.GetCollection(ctx, 4)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, collection, gotCollection)

		gotParent, found, err := tx.GetNFT(ctx, parent.NFTKey)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, parent, gotParent)

		gotChild, found, err := tx.GetNFT(ctx, child.NFTKey)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, child.Owner, gotChild.Owner)
		require.Nil(t, gotChild.Royalty)
		require.Nil(t, gotChild.RoyaltyRecipient)

		children, err := tx.Children(ctx, parent.NFTKey)
		require.NoError(t, err)
		require.Equal(t, []types.NFTKey{child.NFTKey}, children)

		gotResource, found, err := tx.GetResource(ctx, parent.NFTKey, 0)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, resource, gotResource)

		_, found, err = tx.GetResource(ctx, parent.NFTKey, 1)
		require.NoError(t, err)
		require.False(t, found)

		_, found, err = tx.GetCollection(ctx, 99)
		require.NoError(t, err)
		require.False(t, found)

		nfts, err := tx.ListNFTs(ctx)
		require.NoError(t, err)
		require.Len(t, nfts, 2)
		return nil
	})
	require.NoError(t, err)
}

func TestFailedTxLeavesNoTrace(t *testing.T) {
	sdb := setupSqliteDB(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := sdb.ExecuteTx(ctx, func(tx engine.Tx) error {
		require.NoError(t, tx.SetCollectionIndex(ctx, 3))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	err = sdb.ExecuteTx(ctx, func(tx engine.Tx) error {
		index, err := tx.CollectionIndex(ctx)
		require.Equal(t, types.CollectionID(0), index)
		return err
	})
	require.NoError(t, err)
}

func TestEngineOnSqlStorage(t *testing.T) {
	sdb := setupSqliteDB(t)
	ctx := context.Background()
	e := engine.New(sdb)

	c, err := e.CreateCollection(ctx, asAlice, []byte("ipfs://c"), types.Uint32Ptr(3), []byte("ROO"))
	require.NoError(t, err)

	root, err := e.MintNFT(ctx, asAlice, types.AccountOwner{Account: alice}, types.MintParams{
		CollectionID: c,
		Metadata:     []byte("root"),
		Transferable: true,
		Resource:     &types.ResourceSeed{Metadata: []byte("m"), Properties: []byte("p"), Priority: 1},
	})
	require.NoError(t, err)
	child, err := e.MintNFT(ctx, asAlice, types.OwnerOfNFT(root), types.MintParams{CollectionID: c, Metadata: []byte("child"), Transferable: true})
	require.NoError(t, err)

	require.ErrorIs(t, e.Send(ctx, asAlice, root, types.OwnerOfNFT(child)), engine.ErrCyclicOwnership)

	_, err = e.BurnNFT(ctx, asAlice, root, 1)
	require.ErrorIs(t, err, engine.ErrBurnBudgetExceeded)
	info, err := e.Collection(ctx, c)
	require.NoError(t, err)
	require.Equal(t, uint32(2), info.NftsCount)

	burned, err := e.BurnNFT(ctx, asAlice, root, 2)
	require.NoError(t, err)
	require.Equal(t, 2, burned)

	info, err = e.Collection(ctx, c)
	require.NoError(t, err)
	require.Equal(t, uint32(0), info.NftsCount)
	_, err = e.Resource(ctx, root, 0)
	require.ErrorIs(t, err, engine.ErrResourceNotFound)

	require.NoError(t, e.DestroyCollection(ctx, asAlice, c))
}

func TestExecuteTxRollsBackOnCallbackError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sdb := NewSqlDB(sqlx.NewDb(db, "sqlmock"))
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		return engine.ErrNoPermission
	})
	require.ErrorIs(t, err, engine.ErrNoPermission)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTxWrapsQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT value FROM rmrk_counters").WithArgs(collectionIndexCounter).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	sdb := NewSqlDB(sqlx.NewDb(db, "sqlmock"))
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		_, err := tx.CollectionIndex(context.Background())
		return err
	})
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.Contains(t, err.Error(), "failed to read collection index")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTxBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	sdb := NewSqlDB(sqlx.NewDb(db, "sqlmock"))
	called := false
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.False(t, called)
}

func TestConcurrentSendsCannotFormCycle(t *testing.T) {
	sdb := setupSqliteDB(t)
	ctx := context.Background()
	e := engine.New(sdb)

	c, err := e.CreateCollection(ctx, asAlice, nil, nil, nil)
	require.NoError(t, err)

	const pairs = 8
	for i := 0; i < pairs; i++ {
		a, err := e.MintNFT(ctx, asAlice, types.AccountOwner{Account: alice}, types.MintParams{CollectionID: c, Transferable: true})
		require.NoError(t, err)
		b, err := e.MintNFT(ctx, asAlice, types.AccountOwner{Account: alice}, types.MintParams{CollectionID: c, Transferable: true})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, move := range [][2]types.NFTKey{{a, b}, {b, a}} {
			wg.Add(1)
			go func(j int, key, target types.NFTKey) {
				defer wg.Done()
				errs[j] = e.Send(ctx, asAlice, key, types.OwnerOfNFT(target))
			}(j, move[0], move[1])
		}
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				require.ErrorIs(t, err, engine.ErrCyclicOwnership)
				failed++
			}
		}
		require.Equal(t, 1, failed)

		for _, key := range []types.NFTKey{a, b} {
			root, err := e.RootOwner(ctx, key)
			require.NoError(t, err)
			require.Equal(t, alice, root)
		}
	}
}

func TestConcurrentMintsGetDistinctIDs(t *testing.T) {
	sdb := setupSqliteDB(t)
	ctx := context.Background()
	e := engine.New(sdb)

	c, err := e.CreateCollection(ctx, asAlice, nil, nil, nil)
	require.NoError(t, err)

	const mints = 16
	keys := make([]types.NFTKey, mints)
	errs := make([]error, mints)
	var wg sync.WaitGroup
	for i := 0; i < mints; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], errs[i] = e.MintNFT(ctx, asAlice, types.AccountOwner{Account: alice}, types.MintParams{
				CollectionID: c,
				Metadata:     []byte{byte(i)},
			})
		}(i)
	}
	wg.Wait()

	for i, key := range keys {
		require.NoError(t, errs[i])
		nft, err := e.NFT(ctx, key)
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, nft.Metadata)
	}
	info, err := e.Collection(ctx, c)
	require.NoError(t, err)
	require.Equal(t, uint32(mints), info.NftsCount)
}

func TestExecuteTxRetriesSerializationFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT value FROM rmrk_counters").WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT value FROM rmrk_counters").WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(3))
	mock.ExpectCommit()

	sdb := NewSqlDB(sqlx.NewDb(db, "postgres"))
	attempts := 0
	var index types.CollectionID
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		attempts++
		index, err = tx.CollectionIndex(context.Background())
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.Equal(t, types.CollectionID(3), index)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTxGivesUpAfterRepeatedSerializationFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < maxTxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT value FROM rmrk_counters").WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()
	}

	sdb := NewSqlDB(sqlx.NewDb(db, "postgres"))
	attempts := 0
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		attempts++
		_, err := tx.CollectionIndex(context.Background())
		return err
	})
	var pqErr *pq.Error
	require.ErrorAs(t, err, &pqErr)
	require.Equal(t, maxTxAttempts, attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTxDoesNotRetryOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT value FROM rmrk_counters").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	sdb := NewSqlDB(sqlx.NewDb(db, "postgres"))
	attempts := 0
	err = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
		attempts++
		_, err := tx.CollectionIndex(context.Background())
		return err
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTxRollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	sdb := NewSqlDB(sqlx.NewDb(db, "sqlmock"))
	require.PanicsWithValue(t, "boom", func() {
		_ = sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())

	// the lock is released after the panic
	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, sdb.ExecuteTx(context.Background(), func(tx engine.Tx) error { return nil }))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsPropagatesGooseError(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		require.Equal(t, "migrations", dir)
		return errors.New("migration failed")
	}
	defer func() { gooseUpContext = orig }()

	err := RunMigrations(context.Background(), nil, "postgres")
	require.ErrorContains(t, err, "migration failed")
}

func TestRunMigrationsRejectsUnknownDialect(t *testing.T) {
	err := RunMigrations(context.Background(), nil, "oracle-ish")
	require.Error(t, err)
}
