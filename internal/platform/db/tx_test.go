package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeTx satisfies pgx.Tx; only its identity matters here.
type fakeTx struct{ pgx.Tx }

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil transaction, got %v", tx)
	}
}

func TestTxFromContext_RoundTrip(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)

	if got := TxFromContext(ctx); got != tx {
		t.Errorf("expected the stored transaction, got %v", got)
	}
}

func TestReadSnapshot_ReusesAmbientTx(t *testing.T) {
	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx)

	called := false
	err := ReadSnapshot(ctx, nil, func(inner context.Context) error {
		called = true
		if TxFromContext(inner) != tx {
			t.Error("expected the ambient transaction to be reused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to run")
	}
}
