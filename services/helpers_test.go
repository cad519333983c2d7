package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anoiana/soa-version1/database"
	"github.com/anoiana/soa-version1/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var saigon = mustLoadLocation("Asia/Ho_Chi_Minh")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// at returns a time on 2025-03-14 in the restaurant time zone.
func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 14, hour, minute, 0, 0, saigon)
}

// testClock is a settable clock source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (tc *testClock) Set(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.now = t
}

func (tc *testClock) Now() time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.now
}

func (tc *testClock) Clock() Clock {
	return NewClockFunc(saigon, tc.Now)
}

// recordingPublisher captures published messages and can be made to fail.
type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]interface{}
	err      error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: map[string][]interface{}{}}
}

func (p *recordingPublisher) Publish(channel string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages[channel] = append(p.messages[channel], payload)
	return nil
}

func (p *recordingPublisher) On(channel string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.messages[channel]...)
}

var errNotifierDown = errors.New("notifier down")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log, _ := test.NewNullLogger()
	require.NoError(t, database.Migrate(db, log))
	return db
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

// fixture wires every service against one database and clock.
type fixture struct {
	db        *gorm.DB
	clock     *testClock
	publisher *recordingPublisher
	log       *logrus.Logger
	hook      *test.Hook

	shifts   *ShiftService
	tables   *TableService
	orders   *OrderService
	menu     *MenuService
	payments *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:        newTestDB(t),
		clock:     &testClock{now: at(12, 0)},
		publisher: newRecordingPublisher(),
	}
	f.log, f.hook = newTestLogger()

	clock := f.clock.Clock()
	f.shifts = NewShiftService(f.db, f.log, clock)
	f.tables = NewTableService(f.db, f.log, clock, f.shifts)
	f.orders = NewOrderService(f.db, f.log, clock, f.publisher)
	f.menu = NewMenuService(f.db, f.log, clock, f.publisher)
	f.payments = NewPaymentService(f.db, f.log, clock)
	return f
}

// seedShifts creates today's shifts with the codes ABC123 and DEF456.
func (f *fixture) seedShifts(t *testing.T) {
	t.Helper()
	codes := []string{"ABC123", "DEF456"}
	f.shifts.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
	_, err := f.shifts.CreateShiftsForToday(ctxBG(), false)
	require.NoError(t, err)
}

func (f *fixture) seedTable(t *testing.T, number string) models.Table {
	t.Helper()
	table := models.Table{TableNumber: number, Status: models.TableStatusReady}
	require.NoError(t, f.db.Create(&table).Error)
	return table
}

func (f *fixture) seedMenuItem(t *testing.T, name string, available bool) models.MenuItem {
	t.Helper()
	item := models.MenuItem{Name: name, Category: "grill", Available: available}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func (f *fixture) seedPackage(t *testing.T, name string, price int64) models.BuffetPackage {
	t.Helper()
	pkg := models.BuffetPackage{Name: name, PricePerPerson: decimal.NewFromInt(price)}
	require.NoError(t, f.db.Create(&pkg).Error)
	return pkg
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func ctxBG() context.Context {
	return context.Background()
}
