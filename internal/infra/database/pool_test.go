package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/userauth/internal/domain/auth"
	apperrors "github.com/yanqian/userauth/pkg/errors"
)

type stubRow struct {
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = "alice"
	return nil
}

func TestReleasingRow_ReleasesAfterScan(t *testing.T) {
	released := 0
	row := &releasingRow{row: stubRow{}, release: func() { released++ }}

	var name string
	require.NoError(t, row.Scan(&name))
	require.Equal(t, "alice", name)
	require.Equal(t, 1, released)

	failing := &releasingRow{row: stubRow{err: errors.New("scan failed")}, release: func() { released++ }}
	require.EqualError(t, failing.Scan(&name), "scan failed")
	require.Equal(t, 2, released)
}

func TestErrRow_ReturnsAcquireError(t *testing.T) {
	err := errors.New("acquire failed")
	require.ErrorIs(t, errRow{err: err}.Scan(), err)
}

// fakeBackend completes the startup handshake on conn and then drains
// frontend messages until the client goes away.
func fakeBackend(conn net.Conn) {
	defer conn.Close()
	backend := pgproto3.NewBackend(conn, conn)
	if _, err := backend.ReceiveStartupMessage(); err != nil {
		return
	}
	backend.Send(&pgproto3.AuthenticationOk{})
	backend.Send(&pgproto3.ReadyForQuery{TxStatus: 'I'})
	if err := backend.Flush(); err != nil {
		return
	}
	for {
		if _, err := backend.Receive(); err != nil {
			return
		}
	}
}

func newTestPool(t *testing.T, dial pgconn.DialFunc) *Pool {
	t.Helper()
	cfg, err := pgxpool.ParseConfig("postgres://userauth@127.0.0.1:5432/userauth?sslmode=disable")
	require.NoError(t, err)
	cfg.MaxConns = 1
	cfg.ConnConfig.DialFunc = dial
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPool_AcquireOnFullPoolIsExhaustion(t *testing.T) {
	pool := newTestPool(t, func(context.Context, string, string) (net.Conn, error) {
		client, server := net.Pipe()
		go fakeBackend(server)
		return client, nil
	})

	held, err := pool.acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	_, err = pool.acquire(context.Background())
	require.True(t, apperrors.IsCode(err, auth.CodePoolExhausted), "got %v", err)
	require.ErrorIs(t, err, auth.ErrPoolExhausted)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pool.acquire(canceled)
	require.Error(t, err)
	require.False(t, apperrors.IsCode(err, auth.CodePoolExhausted))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPool_HangingConnectIsNotExhaustion(t *testing.T) {
	pool := newTestPool(t, func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	err := pool.QueryRow(context.Background(), "SELECT 1").Scan()
	require.Error(t, err)
	require.False(t, apperrors.IsCode(err, auth.CodePoolExhausted), "got %v", err)
	require.Contains(t, err.Error(), "connect to database within 50ms")
}
