package all

import (
	"testing"

	"clonegen/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	have := map[string]bool{}
	for _, k := range storage.ListKinds() {
		have[k] = true
	}
	for _, want := range []string{"mssql", "mysql", "postgres", "sqlite", "sqlserver"} {
		if !have[want] {
			t.Fatalf("kind %q not registered; have %v", want, storage.ListKinds())
		}
	}
}
