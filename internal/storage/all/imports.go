// Package all wires every built-in template source into the storage
// registry. Import it for side effects:
//
//	import _ "clonegen/internal/storage/all"
//
// after which storage.New accepts the kinds "mysql", "postgres",
// "sqlserver" (alias "mssql"), and "sqlite".
package all

import (
	_ "clonegen/internal/storage/mssql"
	_ "clonegen/internal/storage/mysql"
	_ "clonegen/internal/storage/postgres"
	_ "clonegen/internal/storage/sqlite"
)
