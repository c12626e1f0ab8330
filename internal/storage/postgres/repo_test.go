package postgres

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"clonegen/internal/storage"
	"clonegen/pkg/records"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestFromPG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want records.Value
	}{
		{"int4", int32(12), records.IntValue(12)},
		{"text", "Axe", records.StringValue("Axe")},
		{"null", nil, records.NullValue()},
		{"integral numeric", pgtype.Numeric{Int: big.NewInt(150), Exp: 0, Valid: true}, records.IntValue(150)},
		{"scaled numeric", pgtype.Numeric{Int: big.NewInt(250), Exp: -2, Valid: true}, records.FloatValue(2.5)},
		{"invalid numeric", pgtype.Numeric{}, records.NullValue()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromPG(tt.in); got != tt.want {
				t.Fatalf("fromPG(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFactory_PropagatesErrors(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	want := errors.New("no route")
	newRepository = func(ctx context.Context, dsn string) (*Repository, func(), error) {
		return nil, nil, want
	}
	if _, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://x"}); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestPGIdent(t *testing.T) {
	t.Parallel()

	if got := pgIdent(`we"ird`); got != `"we""ird"` {
		t.Fatalf("pgIdent = %s", got)
	}
}
