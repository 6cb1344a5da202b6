package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

type unavailablePool struct{}

func (unavailablePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("connection refused")
}

func (unavailablePool) Close() {}

func TestConnectRejectsMalformedURL(t *testing.T) {
	if _, err := Connect(context.Background(), "postgres://%zz", Options{}); err == nil {
		t.Fatal("expected error for malformed database url")
	}
}

func TestPingReportsAcquireFailure(t *testing.T) {
	if err := Ping(context.Background(), unavailablePool{}); err == nil {
		t.Fatal("expected ping to fail when no connection can be acquired")
	}
}
