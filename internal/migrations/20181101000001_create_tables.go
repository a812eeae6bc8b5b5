package migrations

func init() {
	Migrations.MustRegister(CreateTables, DropTables)
}
