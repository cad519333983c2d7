package services

import (
	"testing"
	"time"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedSession opens table number with a 100000 package for customers guests
// and closes it one hour later.
func closedSession(t *testing.T, f *fixture, number string, customers int) (CloseSummary, uint) {
	t.Helper()
	start := f.clock.Now()
	f.seedTable(t, number)
	pkg := f.seedPackage(t, "Classic "+number, 100000)

	session, err := f.tables.OpenTable(ctxBG(), number, customers, "ABC123")
	require.NoError(t, err)
	_, err = f.tables.UpdatePackageForTable(ctxBG(), number, pkg.PackageID)
	require.NoError(t, err)

	f.clock.Set(start.Add(time.Hour))
	summary, err := f.tables.CloseTable(ctxBG(), number, "ABC123")
	require.NoError(t, err)
	return *summary, *session.ShiftID
}

func TestProcessPayment(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	summary, _ := closedSession(t, f, "5", 4)
	require.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(400000)))

	payment, err := f.payments.ProcessPayment(ctxBG(), summary.SessionID, summary.TotalAmount, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPaymentMethod, payment.PaymentMethod)
	assert.True(t, payment.PaymentTime.Equal(at(13, 0)))

	_, err = f.payments.ProcessPayment(ctxBG(), summary.SessionID, decimal.NewFromInt(1), "card")
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	var stored []models.Payment
	require.NoError(t, f.db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Amount.Equal(decimal.NewFromInt(400000)))
	assert.Equal(t, DefaultPaymentMethod, stored[0].PaymentMethod)
}

func TestProcessPaymentValidation(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	f.seedTable(t, "5")
	open, err := f.tables.OpenTable(ctxBG(), "5", 2, "ABC123")
	require.NoError(t, err)

	_, err = f.payments.ProcessPayment(ctxBG(), open.SessionID, decimal.Zero, "cash")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.payments.ProcessPayment(ctxBG(), open.SessionID, decimal.NewFromInt(100), "cash")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.payments.ProcessPayment(ctxBG(), 9999, decimal.NewFromInt(100), "cash")
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	assert.Zero(t, f.count(t, &models.Payment{}, ""))
}

func TestPaymentAggregates(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)

	first, shiftID := closedSession(t, f, "5", 4)
	second, _ := closedSession(t, f, "6", 2)
	_, err := f.payments.ProcessPayment(ctxBG(), first.SessionID, first.TotalAmount, "cash")
	require.NoError(t, err)
	_, err = f.payments.ProcessPayment(ctxBG(), second.SessionID, second.TotalAmount, "card")
	require.NoError(t, err)

	byShift, err := f.payments.PaymentsByShift(ctxBG(), shiftID)
	require.NoError(t, err)
	assert.Equal(t, 2, byShift.Count)
	assert.True(t, byShift.TotalRevenue.Equal(decimal.NewFromInt(600000)))

	_, err = f.payments.PaymentsByShift(ctxBG(), 9999)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	byDay, err := f.payments.PaymentsByDate(ctxBG(), DateFilter{Year: 2025, Month: 3, Day: 14})
	require.NoError(t, err)
	assert.Equal(t, 2, byDay.Count)

	byYear, err := f.payments.PaymentsByDate(ctxBG(), DateFilter{Year: 2025})
	require.NoError(t, err)
	assert.True(t, byYear.TotalRevenue.Equal(decimal.NewFromInt(600000)))

	_, err = f.payments.PaymentsByDate(ctxBG(), DateFilter{Year: 2025, Month: 3, Day: 15})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	customers, err := f.payments.CustomersByShift(ctxBG(), shiftID)
	require.NoError(t, err)
	assert.Equal(t, 6, customers.TotalCustomers)
	assert.Equal(t, 2, customers.TotalSessions)

	customers, err = f.payments.CustomersByDate(ctxBG(), DateFilter{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, customers.TotalCustomers)

	_, err = f.payments.CustomersByDate(ctxBG(), DateFilter{Year: 2024})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestPaymentDetails(t *testing.T) {
	f := newFixture(t)
	f.seedShifts(t)
	summary, _ := closedSession(t, f, "5", 4)
	payment, err := f.payments.ProcessPayment(ctxBG(), summary.SessionID, summary.TotalAmount, "cash")
	require.NoError(t, err)

	details, err := f.payments.PaymentDetails(ctxBG(), payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, "5", details.TableNumber)
	assert.Equal(t, "Classic 5", details.BuffetPackage)
	assert.Equal(t, 4, details.NumberOfCustomers)
	assert.Equal(t, "400.000 ₫", details.AmountFormatted)

	_, err = f.payments.PaymentDetails(ctxBG(), 9999)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestDateFilterRange(t *testing.T) {
	cases := []struct {
		name     string
		filter   DateFilter
		from, to time.Time
		invalid  bool
	}{
		{
			name:   "year",
			filter: DateFilter{Year: 2025},
			from:   time.Date(2025, 1, 1, 0, 0, 0, 0, saigon),
			to:     time.Date(2026, 1, 1, 0, 0, 0, 0, saigon),
		},
		{
			name:   "month",
			filter: DateFilter{Year: 2024, Month: 2},
			from:   time.Date(2024, 2, 1, 0, 0, 0, 0, saigon),
			to:     time.Date(2024, 3, 1, 0, 0, 0, 0, saigon),
		},
		{
			name:   "day",
			filter: DateFilter{Year: 2024, Month: 12, Day: 31},
			from:   time.Date(2024, 12, 31, 0, 0, 0, 0, saigon),
			to:     time.Date(2025, 1, 1, 0, 0, 0, 0, saigon),
		},
		{name: "day without month", filter: DateFilter{Year: 2025, Day: 3}, invalid: true},
		{name: "month out of range", filter: DateFilter{Year: 2025, Month: 13}, invalid: true},
		{name: "day out of range", filter: DateFilter{Year: 2025, Month: 2, Day: 30}, invalid: true},
		{name: "missing year", filter: DateFilter{}, invalid: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to, err := tc.filter.Range(saigon)
			if tc.invalid {
				assert.True(t, utils.IsKind(err, utils.KindValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, from.Equal(tc.from), "from %s", from)
			assert.True(t, to.Equal(tc.to), "to %s", to)
		})
	}
}
