package database

import (
	"fmt"

	"github.com/anoiana/soa-version1/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Table{},
		&models.Shift{},
		&models.MenuItem{},
		&models.BuffetPackage{},
		&models.PackageItem{},
		&models.TableSession{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	}
}

// uniqueConstraints are the store-level guarantees the lifecycle relies on.
var uniqueConstraints = []struct {
	model interface{}
	field string
}{
	{&models.Table{}, "TableNumber"},
	{&models.Shift{}, "StartTime"},
	{&models.Shift{}, "SecretCode"},
	{&models.TableSession{}, "OpenTableID"},
	{&models.Payment{}, "SessionID"},
}

// Migrate creates or updates the schema and backfills columns added after
// the first release.
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("AutoMigrate completed")

	// sessions opened before open_table_id existed
	res := db.Model(&models.TableSession{}).
		Where("end_time IS NULL AND open_table_id IS NULL").
		Update("open_table_id", gorm.Expr("table_id"))
	if res.Error != nil {
		return fmt.Errorf("backfill open_table_id: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.WithField("rows", res.RowsAffected).Info("Backfilled open_table_id for open sessions")
	}

	// orders created before the status column existed
	res = db.Model(&models.Order{}).
		Where("status IS NULL OR status = ''").
		Update("status", models.OrderStatusOrdered)
	if res.Error != nil {
		return fmt.Errorf("backfill order status: %w", res.Error)
	}

	migrator := db.Migrator()
	for _, uc := range uniqueConstraints {
		if !migrator.HasIndex(uc.model, uc.field) {
			return fmt.Errorf("missing unique index on %T.%s", uc.model, uc.field)
		}
		log.WithField("index", fmt.Sprintf("%T.%s", uc.model, uc.field)).Debug("Unique index verified")
	}
	return nil
}
