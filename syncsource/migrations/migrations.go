package migrations

import (
	_ "embed"

	"github.com/horizontalsystems/chainsync/db"
	"github.com/horizontalsystems/chainsync/db/types"
)

//go:embed syncsource0001.sql
var mig001 string

func RunMigrations(dbPath string) error {
	migrations := []types.Migration{
		{
			ID:  "syncsource0001",
			SQL: mig001,
		},
	}
	return db.RunMigrations(dbPath, migrations)
}
