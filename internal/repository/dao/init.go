package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Ticket{},
		&Quota{},
		&Prize{},
	)
}

// dropAllTables is used by the integration tests to start from an empty schema.
func dropAllTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&Prize{}, &Quota{}, &Ticket{}, &User{})
}
