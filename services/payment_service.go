package services

import (
	"context"
	"strings"
	"time"

	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultPaymentMethod = "cash"

// DateFilter selects a calendar year, month or day in the restaurant time
// zone. Zero Month or Day means the whole enclosing period.
type DateFilter struct {
	Year  int `form:"year" json:"year"`
	Month int `form:"month" json:"month,omitempty"`
	Day   int `form:"day" json:"day,omitempty"`
}

// Range converts the filter into the half-open interval [from, to).
func (f DateFilter) Range(loc *time.Location) (time.Time, time.Time, error) {
	if f.Year < 1 || f.Year > 9999 {
		return time.Time{}, time.Time{}, utils.Validation("year must be between 1 and 9999")
	}
	if f.Month < 0 || f.Month > 12 {
		return time.Time{}, time.Time{}, utils.Validation("month must be between 1 and 12")
	}
	if f.Day != 0 && f.Month == 0 {
		return time.Time{}, time.Time{}, utils.Validation("day requires month")
	}

	switch {
	case f.Day != 0:
		from := time.Date(f.Year, time.Month(f.Month), f.Day, 0, 0, 0, 0, loc)
		if from.Day() != f.Day || from.Month() != time.Month(f.Month) {
			return time.Time{}, time.Time{}, utils.Validation("invalid day %d for %04d-%02d", f.Day, f.Year, f.Month)
		}
		return from, from.AddDate(0, 0, 1), nil
	case f.Month != 0:
		from := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), nil
	default:
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(1, 0, 0), nil
	}
}

type PaymentAggregate struct {
	ShiftID      *uint            `json:"shift_id,omitempty"`
	Date         *DateFilter      `json:"date,omitempty"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	Count        int              `json:"count"`
	Payments     []models.Payment `json:"payments"`
}

type CustomerAggregate struct {
	ShiftID        *uint       `json:"shift_id,omitempty"`
	Date           *DateFilter `json:"date,omitempty"`
	TotalCustomers int         `json:"total_customers"`
	TotalSessions  int         `json:"total_sessions"`
}

type PaymentDetails struct {
	PaymentID         uint            `json:"payment_id"`
	SessionID         uint            `json:"session_id"`
	TableNumber       string          `json:"table_number,omitempty"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           *time.Time      `json:"end_time"`
	NumberOfCustomers int             `json:"number_of_customers"`
	BuffetPackage     string          `json:"buffet_package"`
	Amount            decimal.Decimal `json:"amount"`
	AmountFormatted   string          `json:"amount_formatted"`
	PaymentMethod     string          `json:"payment_method"`
	PaymentTime       time.Time       `json:"payment_time"`
}

type PaymentService struct {
	db    *gorm.DB
	log   *logrus.Logger
	clock Clock
}

func NewPaymentService(db *gorm.DB, log *logrus.Logger, clock Clock) *PaymentService {
	return &PaymentService{db: db, log: log, clock: clock}
}

// ProcessPayment records the single payment of a closed session.
func (s *PaymentService) ProcessPayment(ctx context.Context, sessionID uint, amount decimal.Decimal, method string) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, utils.Validation("amount must be greater than 0")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = DefaultPaymentMethod
	}

	db := s.db.WithContext(ctx)
	var session models.TableSession
	if err := db.First(&session, sessionID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.Validation("session %d does not exist", sessionID)
		}
		return nil, utils.Internal(err, "failed to load session")
	}
	if session.IsOpen() {
		return nil, utils.Validation("session %d is not closed yet", sessionID)
	}

	var paid int64
	if err := db.Model(&models.Payment{}).Where("session_id = ?", sessionID).Count(&paid).Error; err != nil {
		return nil, utils.Internal(err, "failed to check existing payment")
	}
	if paid > 0 {
		return nil, utils.Conflict("session %d has already been paid", sessionID)
	}

	payment := models.Payment{
		SessionID:     sessionID,
		Amount:        amount,
		PaymentTime:   s.clock.Now(),
		PaymentMethod: method,
	}
	if err := db.Create(&payment).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, utils.Conflict("session %d has already been paid", sessionID)
		}
		return nil, utils.Internal(err, "failed to record payment")
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"payment_id": payment.PaymentID,
		"amount":     amount.String(),
		"method":     method,
	}).Info("Payment recorded")
	return &payment, nil
}

// PaymentsByShift sums the payments of sessions opened in a shift.
func (s *PaymentService) PaymentsByShift(ctx context.Context, shiftID uint) (*PaymentAggregate, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Joins("JOIN table_sessions ON table_sessions.session_id = payments.session_id").
		Where("table_sessions.shift_id = ?", shiftID).
		Order("payments.payment_time, payments.payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load payments")
	}
	if len(payments) == 0 {
		return nil, utils.NotFound("no payments found for shift %d", shiftID)
	}

	agg := newPaymentAggregate(payments)
	agg.ShiftID = &shiftID
	return agg, nil
}

// PaymentsByDate sums the payments made in a year, month or day.
func (s *PaymentService) PaymentsByDate(ctx context.Context, filter DateFilter) (*PaymentAggregate, error) {
	from, to, err := filter.Range(s.clock.Location())
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	err = s.db.WithContext(ctx).
		Where("payment_time >= ? AND payment_time < ?", from, to).
		Order("payment_time, payment_id").
		Find(&payments).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load payments")
	}
	if len(payments) == 0 {
		return nil, utils.NotFound("no payments found between %s and %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	agg := newPaymentAggregate(payments)
	agg.Date = &filter
	return agg, nil
}

func newPaymentAggregate(payments []models.Payment) *PaymentAggregate {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return &PaymentAggregate{TotalRevenue: total, Count: len(payments), Payments: payments}
}

// CustomersByShift counts guests of the sessions opened in a shift.
func (s *PaymentService) CustomersByShift(ctx context.Context, shiftID uint) (*CustomerAggregate, error) {
	var sessions []models.TableSession
	if err := s.db.WithContext(ctx).Where("shift_id = ?", shiftID).Find(&sessions).Error; err != nil {
		return nil, utils.Internal(err, "failed to load sessions")
	}
	if len(sessions) == 0 {
		return nil, utils.NotFound("no sessions found for shift %d", shiftID)
	}

	agg := newCustomerAggregate(sessions)
	agg.ShiftID = &shiftID
	return agg, nil
}

// CustomersByDate counts guests of the sessions started in a year, month or day.
func (s *PaymentService) CustomersByDate(ctx context.Context, filter DateFilter) (*CustomerAggregate, error) {
	from, to, err := filter.Range(s.clock.Location())
	if err != nil {
		return nil, err
	}

	var sessions []models.TableSession
	if err := s.db.WithContext(ctx).Where("start_time >= ? AND start_time < ?", from, to).Find(&sessions).Error; err != nil {
		return nil, utils.Internal(err, "failed to load sessions")
	}
	if len(sessions) == 0 {
		return nil, utils.NotFound("no sessions found between %s and %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	agg := newCustomerAggregate(sessions)
	agg.Date = &filter
	return agg, nil
}

func newCustomerAggregate(sessions []models.TableSession) *CustomerAggregate {
	total := 0
	for _, session := range sessions {
		total += session.NumberOfCustomers
	}
	return &CustomerAggregate{TotalCustomers: total, TotalSessions: len(sessions)}
}

// PaymentDetails returns a payment with its session, table and package.
func (s *PaymentService) PaymentDetails(ctx context.Context, paymentID uint) (*PaymentDetails, error) {
	db := s.db.WithContext(ctx)

	var payment models.Payment
	if err := db.First(&payment, paymentID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("payment %d not found", paymentID)
		}
		return nil, utils.Internal(err, "failed to load payment")
	}

	var session models.TableSession
	if err := db.Preload("Table").Preload("Package").First(&session, payment.SessionID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("session %d of payment %d not found", payment.SessionID, paymentID)
		}
		return nil, utils.Internal(err, "failed to load session")
	}

	details := &PaymentDetails{
		PaymentID:         payment.PaymentID,
		SessionID:         session.SessionID,
		StartTime:         session.StartTime,
		EndTime:           session.EndTime,
		NumberOfCustomers: session.NumberOfCustomers,
		BuffetPackage:     "no buffet package",
		Amount:            payment.Amount,
		AmountFormatted:   utils.FormatCurrencyVND(payment.Amount),
		PaymentMethod:     payment.PaymentMethod,
		PaymentTime:       payment.PaymentTime,
	}
	if session.Table != nil {
		details.TableNumber = session.Table.TableNumber
	}
	if session.Package != nil {
		details.BuffetPackage = session.Package.Name
	}
	return details, nil
}
