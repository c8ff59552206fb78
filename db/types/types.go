package types

// Migration is a single schema change applied by db.RunMigrations
type Migration struct {
	// ID unique name of the migration, it's stored in the migrations table
	ID string
	// SQL contains both directions separated by "-- +migrate Up"
	SQL string
	// Prefix replaces /*dbprefix*/ in SQL, so the same schema can be reused by several components
	Prefix string
}
