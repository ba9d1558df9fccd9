package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"scraperpro/lib/sqliteutil"
	"scraperpro/lib/telemetry"
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

// SetupService prepares telemetry and an optional sqlite database for a
// package test.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	result := ServiceResult{}
	if params.DbSchema != "" {
		dbpath := params.DbPath
		if dbpath == "" {
			dbpath = ":memory:"
		}
		db, err := sqliteutil.OpenDB(params.DbSchema, dbpath)
		if err != nil {
			t.Fatal(err)
		}
		result.DB = db
	}

	return result, func() {
		if result.DB != nil {
			result.DB.Close()
		}
		cleanup()
	}
}
