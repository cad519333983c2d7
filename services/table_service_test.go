package services

import (
	"testing"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenTable(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	table := f.seedTable(t, "5")

	session, err := f.tables.OpenTable(ctxBG(), "5", 4, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, table.TableID, session.TableID)
	assert.Equal(t, 4, session.NumberOfCustomers)
	assert.True(t, session.IsOpen())
	require.NotNil(t, session.ShiftID)
	assert.True(t, session.StartTime.Equal(at(12, 0)))

	var stored models.Table
	require.NoError(t, f.db.First(&stored, table.TableID).Error)
	assert.Equal(t, models.TableStatusEating, stored.Status)
}

func TestOpenTableFailures(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "1")
	cleaning := f.seedTable(t, "2")
	require.NoError(t, f.db.Model(&cleaning).Update("status", models.TableStatusCleaning).Error)

	cases := []struct {
		name      string
		table     string
		customers int
		code      string
		kind      utils.ErrorKind
	}{
		{name: "no customers", table: "1", customers: 0, code: "ABC123", kind: utils.KindValidation},
		{name: "unknown table", table: "99", customers: 2, code: "ABC123", kind: utils.KindNotFound},
		{name: "table being cleaned", table: "2", customers: 2, code: "ABC123", kind: utils.KindConflict},
		{name: "wrong code", table: "1", customers: 2, code: "XYZ000", kind: utils.KindForbidden},
		{name: "code of next shift", table: "1", customers: 2, code: "DEF456", kind: utils.KindForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tables.OpenTable(ctxBG(), tc.table, tc.customers, tc.code)
			require.Error(t, err)
			assert.Equal(t, tc.kind, utils.KindOf(err))
		})
	}

	assert.Zero(t, f.count(t, &models.TableSession{}, ""))
	var table models.Table
	require.NoError(t, f.db.Where("table_number = ?", "1").First(&table).Error)
	assert.Equal(t, models.TableStatusReady, table.Status)
}

func TestOpenTableTwice(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")

	_, err := f.tables.OpenTable(ctxBG(), "5", 2, "ABC123")
	require.NoError(t, err)

	_, err = f.tables.OpenTable(ctxBG(), "5", 3, "ABC123")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	assert.Equal(t, int64(1), f.count(t, &models.TableSession{}, "end_time IS NULL"))
}

func TestOpenSessionUniquePerTable(t *testing.T) {
	f := newFixture(t)
	table := f.seedTable(t, "5")
	tableID := table.TableID

	first := models.TableSession{TableID: tableID, StartTime: at(11, 0), NumberOfCustomers: 2, OpenTableID: &tableID}
	require.NoError(t, f.db.Create(&first).Error)

	second := models.TableSession{TableID: tableID, StartTime: at(11, 5), NumberOfCustomers: 2, OpenTableID: &tableID}
	err := f.db.Create(&second).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}

func TestCloseTable(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	table := f.seedTable(t, "5")
	pkg := f.seedPackage(t, "Classic", 100000)

	session, err := f.tables.OpenTable(ctxBG(), "5", 4, "ABC123")
	require.NoError(t, err)
	_, err = f.tables.UpdatePackageForTable(ctxBG(), "5", pkg.PackageID)
	require.NoError(t, err)

	// a session may be closed with the code of whichever shift is active
	f.clock.Set(at(17, 30))
	summary, err := f.tables.CloseTable(ctxBG(), "5", "DEF456")
	require.NoError(t, err)

	assert.Equal(t, session.SessionID, summary.SessionID)
	assert.Equal(t, "5", summary.TableNumber)
	assert.Equal(t, "Classic", summary.PackageName)
	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(400000)))
	assert.True(t, summary.EndTime.Equal(at(17, 30)))

	var stored models.TableSession
	require.NoError(t, f.db.First(&stored, session.SessionID).Error)
	require.NotNil(t, stored.EndTime)
	assert.Nil(t, stored.OpenTableID)
	assert.False(t, stored.IsOpen())

	var storedTable models.Table
	require.NoError(t, f.db.First(&storedTable, table.TableID).Error)
	assert.Equal(t, models.TableStatusReady, storedTable.Status)

	// the table can be opened again
	_, err = f.tables.OpenTable(ctxBG(), "5", 2, "DEF456")
	assert.NoError(t, err)
}

func TestCloseTableWithoutPackage(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")

	_, err := f.tables.OpenTable(ctxBG(), "5", 3, "ABC123")
	require.NoError(t, err)

	summary, err := f.tables.CloseTable(ctxBG(), "5", "ABC123")
	require.NoError(t, err)
	assert.Nil(t, summary.PackageID)
	assert.True(t, summary.TotalAmount.IsZero())
}

func TestCloseTableFailures(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")
	f.seedTable(t, "6")
	_, err := f.tables.OpenTable(ctxBG(), "6", 2, "ABC123")
	require.NoError(t, err)

	_, err = f.tables.CloseTable(ctxBG(), "99", "ABC123")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.tables.CloseTable(ctxBG(), "5", "ABC123")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	_, err = f.tables.CloseTable(ctxBG(), "6", "WRONG1")
	assert.True(t, utils.IsKind(err, utils.KindForbidden))
	assert.Equal(t, int64(1), f.count(t, &models.TableSession{}, "end_time IS NULL"))
}

func TestUpdatePackageForTable(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")
	f.seedTable(t, "6")
	pkg := f.seedPackage(t, "Premium", 250000)

	_, err := f.tables.OpenTable(ctxBG(), "5", 2, "ABC123")
	require.NoError(t, err)

	session, err := f.tables.UpdatePackageForTable(ctxBG(), "5", pkg.PackageID)
	require.NoError(t, err)
	require.NotNil(t, session.PackageID)
	assert.Equal(t, pkg.PackageID, *session.PackageID)

	_, err = f.tables.UpdatePackageForTable(ctxBG(), "5", 999)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = f.tables.UpdatePackageForTable(ctxBG(), "6", pkg.PackageID)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
}

func TestCreateAndListTables(t *testing.T) {
	f := newFixture(t)

	_, err := f.tables.CreateTable(ctxBG(), " 7 ")
	require.NoError(t, err)
	_, err = f.tables.CreateTable(ctxBG(), "8")
	require.NoError(t, err)

	_, err = f.tables.CreateTable(ctxBG(), "7")
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	_, err = f.tables.CreateTable(ctxBG(), "  ")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.tables.SetTableStatus(ctxBG(), "8", models.TableStatusCleaning)
	require.NoError(t, err)

	all, err := f.tables.ListTables(ctxBG(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ready, err := f.tables.ListTables(ctxBG(), models.TableStatusReady)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "7", ready[0].TableNumber)
}

func TestSetTableStatus(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")
	f.seedTable(t, "6")
	_, err := f.tables.OpenTable(ctxBG(), "6", 2, "ABC123")
	require.NoError(t, err)

	table, err := f.tables.SetTableStatus(ctxBG(), "5", models.TableStatusCleaning)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusCleaning, table.Status)

	_, err = f.tables.SetTableStatus(ctxBG(), "5", models.TableStatusEating)
	assert.True(t, utils.IsKind(err, utils.KindInvalidStatus))

	_, err = f.tables.SetTableStatus(ctxBG(), "5", "flying")
	assert.True(t, utils.IsKind(err, utils.KindInvalidStatus))

	_, err = f.tables.SetTableStatus(ctxBG(), "6", models.TableStatusCleaning)
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	_, err = f.tables.SetTableStatus(ctxBG(), "99", models.TableStatusReady)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestActiveSessionLookups(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")

	_, err := f.tables.GetActiveSession(ctxBG(), "5")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	opened, err := f.tables.OpenTable(ctxBG(), "5", 2, "ABC123")
	require.NoError(t, err)

	session, err := f.tables.GetActiveSession(ctxBG(), "5")
	require.NoError(t, err)
	assert.Equal(t, opened.SessionID, session.SessionID)

	number, err := f.tables.TableNumberBySession(ctxBG(), opened.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "5", number)

	_, err = f.tables.TableNumberBySession(ctxBG(), 404)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestUpdatePackageForTableLosesRaceWithClose(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")
	pkg := f.seedPackage(t, "Premium", 250000)

	session, err := f.tables.OpenTable(ctxBG(), "5", 2, "ABC123")
	require.NoError(t, err)

	// close the session between the open-session lookup and the package write
	closed := false
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:close_session", func(db *gorm.DB) {
		if closed || db.Statement.Table != "table_sessions" {
			return
		}
		closed = true
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE table_sessions SET end_time = ?, open_table_id = NULL WHERE session_id = ?", at(12, 30), session.SessionID).Error)
	}))

	_, err = f.tables.UpdatePackageForTable(ctxBG(), "5", pkg.PackageID)
	assert.True(t, closed)
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	assert.Equal(t, int64(0), f.count(t, &models.TableSession{}, "package_id IS NOT NULL"))
}
