package services

import (
	"context"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats is the live overview shown to administrators.
type DashboardStats struct {
	Tables struct {
		Ready    int64 `json:"ready"`
		Eating   int64 `json:"eating"`
		Cleaning int64 `json:"cleaning"`
	} `json:"tables"`
	OpenSessions int64 `json:"open_sessions"`
	Orders       struct {
		Ordered    int64 `json:"ordered"`
		InProgress int64 `json:"in_progress"`
		Served     int64 `json:"served"`
	} `json:"orders_today"`
	TodayPayments  int64           `json:"today_payments"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	TodayCustomers int64           `json:"today_customers"`
}

type DashboardService struct {
	db    *gorm.DB
	clock Clock
}

func NewDashboardService(db *gorm.DB, clock Clock) *DashboardService {
	return &DashboardService{db: db, clock: clock}
}

// Stats counts tables by status and sums today's orders, payments and guests.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	from := s.clock.StartOfDay(s.clock.Now())
	to := from.AddDate(0, 0, 1)

	var stats DashboardStats
	counts := []struct {
		model interface{}
		query string
		args  []interface{}
		dest  *int64
	}{
		{&models.Table{}, "status = ?", []interface{}{models.TableStatusReady}, &stats.Tables.Ready},
		{&models.Table{}, "status = ?", []interface{}{models.TableStatusEating}, &stats.Tables.Eating},
		{&models.Table{}, "status = ?", []interface{}{models.TableStatusCleaning}, &stats.Tables.Cleaning},
		{&models.TableSession{}, "end_time IS NULL", nil, &stats.OpenSessions},
		{&models.Order{}, "status = ? AND order_time >= ? AND order_time < ?", []interface{}{models.OrderStatusOrdered, from, to}, &stats.Orders.Ordered},
		{&models.Order{}, "status = ? AND order_time >= ? AND order_time < ?", []interface{}{models.OrderStatusInProgress, from, to}, &stats.Orders.InProgress},
		{&models.Order{}, "status = ? AND order_time >= ? AND order_time < ?", []interface{}{models.OrderStatusServed, from, to}, &stats.Orders.Served},
		{&models.Payment{}, "payment_time >= ? AND payment_time < ?", []interface{}{from, to}, &stats.TodayPayments},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Where(q.query, q.args...).Count(q.dest).Error; err != nil {
			return nil, utils.Internal(err, "failed to load dashboard stats")
		}
	}

	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).Where("payment_time >= ? AND payment_time < ?", from, to).Pluck("amount", &amounts).Error; err != nil {
		return nil, utils.Internal(err, "failed to load dashboard stats")
	}
	stats.TodayRevenue = decimal.Zero
	for _, amount := range amounts {
		stats.TodayRevenue = stats.TodayRevenue.Add(amount)
	}

	var customers []int64
	if err := db.Model(&models.TableSession{}).Where("start_time >= ? AND start_time < ?", from, to).Pluck("number_of_customers", &customers).Error; err != nil {
		return nil, utils.Internal(err, "failed to load dashboard stats")
	}
	for _, n := range customers {
		stats.TodayCustomers += n
	}
	return &stats, nil
}
