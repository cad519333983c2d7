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

// SecretCodeValidator resolves a secret code to the active shift id.
type SecretCodeValidator interface {
	ValidateSecretCode(ctx context.Context, code string) (uint, error)
}

// CloseSummary describes a session that was just closed.
type CloseSummary struct {
	SessionID         uint            `json:"session_id"`
	TableNumber       string          `json:"table_number"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           time.Time       `json:"end_time"`
	NumberOfCustomers int             `json:"number_of_customers"`
	PackageID         *uint           `json:"package_id"`
	PackageName       string          `json:"package_name,omitempty"`
	PricePerPerson    decimal.Decimal `json:"price_per_person"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

type TableService struct {
	db     *gorm.DB
	log    *logrus.Logger
	clock  Clock
	shifts SecretCodeValidator
}

func NewTableService(db *gorm.DB, log *logrus.Logger, clock Clock, shifts SecretCodeValidator) *TableService {
	return &TableService{db: db, log: log, clock: clock, shifts: shifts}
}

func findTable(db *gorm.DB, tableNumber string) (*models.Table, error) {
	var table models.Table
	if err := db.Where("table_number = ?", tableNumber).First(&table).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("table %s not found", tableNumber)
		}
		return nil, utils.Internal(err, "failed to load table")
	}
	return &table, nil
}

// findOpenSession returns the open session of table, or nil when it has none.
func findOpenSession(db *gorm.DB, tableID uint) (*models.TableSession, error) {
	var sessions []models.TableSession
	err := db.Preload("Package").
		Where("table_id = ? AND end_time IS NULL", tableID).
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load table session")
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// requireOpenSession resolves a table number to its open session, failing
// with NotFound for an unknown table and Conflict when no session is open.
func requireOpenSession(db *gorm.DB, tableNumber string) (*models.Table, *models.TableSession, error) {
	table, err := findTable(db, tableNumber)
	if err != nil {
		return nil, nil, err
	}
	session, err := findOpenSession(db, table.TableID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, utils.Conflict("table %s has no open session", tableNumber)
	}
	return table, session, nil
}

// OpenTable starts a session on a ready table for numberOfCustomers guests.
func (s *TableService) OpenTable(ctx context.Context, tableNumber string, numberOfCustomers int, secretCode string) (*models.TableSession, error) {
	if numberOfCustomers <= 0 {
		return nil, utils.Validation("number_of_customers must be greater than 0")
	}

	db := s.db.WithContext(ctx)
	table, err := findTable(db, tableNumber)
	if err != nil {
		return nil, err
	}

	open, err := findOpenSession(db, table.TableID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, utils.Conflict("table %s already has an open session", tableNumber)
	}
	if table.Status == models.TableStatusCleaning {
		return nil, utils.Conflict("table %s is being cleaned", tableNumber)
	}

	shiftID, err := s.shifts.ValidateSecretCode(ctx, secretCode)
	if err != nil {
		return nil, err
	}

	tableID := table.TableID
	session := models.TableSession{
		TableID:           table.TableID,
		StartTime:         s.clock.Now(),
		NumberOfCustomers: numberOfCustomers,
		ShiftID:           &shiftID,
		OpenTableID:       &tableID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			if isDuplicateKey(err) {
				return utils.Conflict("table %s already has an open session", tableNumber)
			}
			return utils.Internal(err, "failed to create table session")
		}
		if err := tx.Model(&models.Table{}).Where("table_id = ?", table.TableID).
			Update("status", models.TableStatusEating).Error; err != nil {
			return utils.Internal(err, "failed to update table status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	table.Status = models.TableStatusEating
	session.Table = table

	s.log.WithFields(logrus.Fields{
		"table_number": tableNumber,
		"session_id":   session.SessionID,
		"shift_id":     shiftID,
	}).Info("Table opened")
	return &session, nil
}

// CloseTable ends the open session of a table. Any code of a currently
// active shift is accepted.
func (s *TableService) CloseTable(ctx context.Context, tableNumber string, secretCode string) (*CloseSummary, error) {
	db := s.db.WithContext(ctx)
	table, session, err := requireOpenSession(db, tableNumber)
	if err != nil {
		return nil, err
	}

	if _, err := s.shifts.ValidateSecretCode(ctx, secretCode); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TableSession{}).
			Where("session_id = ? AND end_time IS NULL", session.SessionID).
			Updates(map[string]interface{}{
				"end_time":      now,
				"open_table_id": nil,
			})
		if res.Error != nil {
			return utils.Internal(res.Error, "failed to close table session")
		}
		if res.RowsAffected == 0 {
			return utils.Conflict("table %s has no open session", tableNumber)
		}
		if err := tx.Model(&models.Table{}).Where("table_id = ?", table.TableID).
			Update("status", models.TableStatusReady).Error; err != nil {
			return utils.Internal(err, "failed to update table status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := &CloseSummary{
		SessionID:         session.SessionID,
		TableNumber:       table.TableNumber,
		StartTime:         session.StartTime,
		EndTime:           now,
		NumberOfCustomers: session.NumberOfCustomers,
		PackageID:         session.PackageID,
		PricePerPerson:    decimal.Zero,
		TotalAmount:       decimal.Zero,
	}
	if session.Package != nil {
		summary.PackageName = session.Package.Name
		summary.PricePerPerson = session.Package.PricePerPerson
		summary.TotalAmount = session.Package.PricePerPerson.Mul(decimal.NewFromInt(int64(session.NumberOfCustomers)))
	}

	s.log.WithFields(logrus.Fields{
		"table_number": tableNumber,
		"session_id":   session.SessionID,
		"total_amount": summary.TotalAmount.String(),
	}).Info("Table closed")
	return summary, nil
}

// UpdatePackageForTable binds a buffet package to the open session of a table.
func (s *TableService) UpdatePackageForTable(ctx context.Context, tableNumber string, packageID uint) (*models.TableSession, error) {
	db := s.db.WithContext(ctx)
	_, session, err := requireOpenSession(db, tableNumber)
	if err != nil {
		return nil, err
	}

	var pkg models.BuffetPackage
	if err := db.First(&pkg, packageID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("buffet package %d not found", packageID)
		}
		return nil, utils.Internal(err, "failed to load buffet package")
	}

	res := db.Model(&models.TableSession{}).
		Where("session_id = ? AND end_time IS NULL", session.SessionID).
		Update("package_id", pkg.PackageID)
	if res.Error != nil {
		return nil, utils.Internal(res.Error, "failed to update session package")
	}
	if res.RowsAffected == 0 {
		return nil, utils.Conflict("table %s has no open session", tableNumber)
	}

	session.PackageID = &pkg.PackageID
	session.Package = &pkg
	s.log.WithFields(logrus.Fields{
		"table_number": tableNumber,
		"session_id":   session.SessionID,
		"package_id":   pkg.PackageID,
	}).Info("Session package updated")
	return session, nil
}

func (s *TableService) CreateTable(ctx context.Context, tableNumber string) (*models.Table, error) {
	tableNumber = strings.TrimSpace(tableNumber)
	if tableNumber == "" {
		return nil, utils.Validation("table_number is required")
	}

	table := models.Table{TableNumber: tableNumber, Status: models.TableStatusReady}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, utils.Conflict("table %s already exists", tableNumber)
		}
		return nil, utils.Internal(err, "failed to create table")
	}
	return &table, nil
}

// ListTables returns all tables, optionally only those with status.
func (s *TableService) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	query := s.db.WithContext(ctx).Order("table_id")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	tables := []models.Table{}
	if err := query.Find(&tables).Error; err != nil {
		return nil, utils.Internal(err, "failed to list tables")
	}
	return tables, nil
}

// SetTableStatus lets staff move a free table between ready and cleaning.
// Tables only become eating by opening a session.
func (s *TableService) SetTableStatus(ctx context.Context, tableNumber, status string) (*models.Table, error) {
	switch status {
	case models.TableStatusReady, models.TableStatusCleaning:
	case models.TableStatusEating:
		return nil, utils.InvalidStatus("status %q is set by opening the table", status)
	default:
		return nil, utils.InvalidStatus("unknown table status %q", status)
	}

	db := s.db.WithContext(ctx)
	table, err := findTable(db, tableNumber)
	if err != nil {
		return nil, err
	}
	open, err := findOpenSession(db, table.TableID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, utils.Conflict("table %s has an open session", tableNumber)
	}

	if err := db.Model(table).Update("status", status).Error; err != nil {
		return nil, utils.Internal(err, "failed to update table status")
	}
	table.Status = status

	s.log.WithFields(logrus.Fields{"table_number": tableNumber, "status": status}).Info("Table status changed")
	return table, nil
}

// GetActiveSession returns the open session of a table.
func (s *TableService) GetActiveSession(ctx context.Context, tableNumber string) (*models.TableSession, error) {
	db := s.db.WithContext(ctx)
	table, err := findTable(db, tableNumber)
	if err != nil {
		return nil, err
	}
	session, err := findOpenSession(db, table.TableID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, utils.NotFound("table %s has no open session", tableNumber)
	}
	session.Table = table
	return session, nil
}

// TableNumberBySession returns the table number a session belongs to.
func (s *TableService) TableNumberBySession(ctx context.Context, sessionID uint) (string, error) {
	var session models.TableSession
	err := s.db.WithContext(ctx).Preload("Table").First(&session, sessionID).Error
	if err != nil {
		if isNotFound(err) {
			return "", utils.NotFound("session %d not found", sessionID)
		}
		return "", utils.Internal(err, "failed to load session")
	}
	if session.Table == nil {
		return "", utils.NotFound("table for session %d not found", sessionID)
	}
	return session.Table.TableNumber, nil
}
