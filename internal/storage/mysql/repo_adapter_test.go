package mysql

import (
	"context"
	"strings"
	"testing"

	"clonegen/internal/storage"
)

func TestFactory_UsesHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var gotDSN string
	closed := false
	newRepository = func(ctx context.Context, dsn string) (*Repository, func(), error) {
		gotDSN = dsn
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(db:3306)/world"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotDSN != "u:p@tcp(db:3306)/world" {
		t.Fatalf("dsn = %q", gotDSN)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call the cleanup function")
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), "not a dsn")
	if err == nil || !strings.Contains(err.Error(), "mysql dsn") {
		t.Fatalf("err = %v, want dsn error", err)
	}
}
