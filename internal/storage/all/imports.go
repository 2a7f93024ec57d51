// Package all wires every built-in storage backend into the storage factory.
// Import it for side effects:
//
//	import _ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/all"
//
// This makes the "mssql", "postgres", "mysql" and "sqlite" kinds available to
// storage.New and storage.EnsureTable.
package all

import (
	_ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/mssql"
	_ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/mysql"
	_ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/postgres"
	_ "github.com/MateusRestier/BAG-Logistics-Tracking-ETL/internal/storage/sqlite"
)
