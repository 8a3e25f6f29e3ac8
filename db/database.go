package db

import "gorm.io/gorm"

// Database hands out the shared gorm handle. Repositories depend on this
// rather than on *gorm.DB so tests can substitute a sqlmock-backed handle.
type Database interface {
	GetDB() *gorm.DB
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Close releases the underlying connection pool.
func (g *GormDatabase) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
