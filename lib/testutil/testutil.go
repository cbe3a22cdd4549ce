package testutil

import (
	"database/sql"
	configlibsql "dhapi/lib/configutil/libsql"
	"dhapi/lib/telemetry"
	"fmt"
	"testing"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService sets up telemetry for `params.Name` and opens a database
// with the given schema, both are torn down when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name)))

	if params.DbSchema == "" {
		return ServiceResult{}
	}
	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	db, err := configlibsql.Struct{File: dbpath}.OpenDB(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return ServiceResult{DB: db}
}
