// Command clonegen derives tiered upgrade clones from an item template table.
// It writes an SQL script that inserts the clones with their mapping rows and
// rewrites the client extract so it lists every generated item.
package main

import (
	"fmt"
	"os"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "clonegen/internal/storage/all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
