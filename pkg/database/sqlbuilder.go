package database

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
)

// FlavorFor maps a database/sql driver name to its SQL dialect
func FlavorFor(driverName string) (sqlbuilder.Flavor, error) {
	switch driverName {
	case DriverSQLite:
		return sqlbuilder.SQLite, nil
	case DriverPostgres:
		return sqlbuilder.PostgreSQL, nil
	default:
		return sqlbuilder.DefaultFlavor, fmt.Errorf("unsupported database driver: %s", driverName)
	}
}
