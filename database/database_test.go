package database

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/anoiana/soa-version1/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrateCreatesUniqueIndexes(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, logrus.New()))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.TableSession{}, "OpenTableID"))
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, logrus.New()))
	require.NoError(t, Migrate(db, logrus.New()))
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, logrus.New()))

	opts := SeedOptions{AdminName: "Admin", AdminEmail: "admin@example.com", AdminPassword: "secret123", Tables: 3}
	require.NoError(t, Seed(db, logrus.New(), opts))
	require.NoError(t, Seed(db, logrus.New(), opts))

	var tables, users, items, links int64
	db.Model(&models.Table{}).Count(&tables)
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.MenuItem{}).Count(&items)
	db.Model(&models.PackageItem{}).Count(&links)

	assert.Equal(t, int64(3), tables)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(4), items)
	assert.Equal(t, int64(4), links)
}

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) []string {
	t.Helper()
	var fks []foreignKey
	require.NoError(t, db.Raw("PRAGMA foreign_key_list("+table+")").Scan(&fks).Error)
	out := make([]string, 0, len(fks))
	for _, fk := range fks {
		out = append(out, fmt.Sprintf("%s -> %s(%s) %s", fk.From, fk.Table, fk.To, fk.OnDelete))
	}
	return out
}

func TestMigrateForeignKeysPointFromChildToParent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, logrus.New()))

	want := map[string][]string{
		"users":           {},
		"tables":          {},
		"shifts":          {},
		"menu_items":      {},
		"buffet_packages": {},
		"table_sessions": {
			"table_id -> tables(table_id) RESTRICT",
			"package_id -> buffet_packages(package_id) SET NULL",
			"shift_id -> shifts(shift_id) RESTRICT",
		},
		"orders": {
			"session_id -> table_sessions(session_id) CASCADE",
		},
		"order_items": {
			"order_id -> orders(order_id) NO ACTION",
			"item_id -> menu_items(item_id) RESTRICT",
		},
		"payments": {
			"session_id -> table_sessions(session_id) RESTRICT",
		},
		"package_items": {
			"package_id -> buffet_packages(package_id) CASCADE",
			"item_id -> menu_items(item_id) CASCADE",
		},
	}
	for table, fks := range want {
		t.Run(table, func(t *testing.T) {
			assert.ElementsMatch(t, fks, foreignKeys(t, db, table))
		})
	}
}

func TestForeignKeysAllowParentsAndRejectOrphans(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, logrus.New()))

	start := time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	table := models.Table{TableNumber: "1", Status: models.TableStatusReady}
	shift := models.NewShift(start, "ABC123")
	item := models.MenuItem{Name: "Beef", Available: true}
	pkg := models.BuffetPackage{Name: "Basic"}
	require.NoError(t, db.Create(&table).Error)
	require.NoError(t, db.Create(&shift).Error)
	require.NoError(t, db.Create(&item).Error)
	require.NoError(t, db.Create(&pkg).Error)

	session := models.TableSession{TableID: table.TableID, StartTime: start, NumberOfCustomers: 2, PackageID: &pkg.PackageID, ShiftID: &shift.ShiftID}
	require.NoError(t, db.Create(&session).Error)

	orphan := models.TableSession{TableID: table.TableID + 100, StartTime: start, NumberOfCustomers: 2}
	assert.Error(t, db.Create(&orphan).Error)

	// tables still referenced by a session cannot be removed
	assert.Error(t, db.Delete(&models.Table{}, table.TableID).Error)

	// deleting a package detaches it from sessions
	require.NoError(t, db.Delete(&models.BuffetPackage{}, pkg.PackageID).Error)
	var stored models.TableSession
	require.NoError(t, db.First(&stored, session.SessionID).Error)
	assert.Nil(t, stored.PackageID)
}
