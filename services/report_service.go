package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anoiana/soa-version1/utils"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	paymentsSheet  = "Payments"
	timeLayoutXLSX = "2006-01-02 15:04:05"
)

// PaymentsSource is the aggregate the revenue workbook is built from.
type PaymentsSource interface {
	PaymentsByDate(ctx context.Context, filter DateFilter) (*PaymentAggregate, error)
}

type ReportService struct {
	payments PaymentsSource
	tables   *TableService
	log      *logrus.Logger
}

func NewReportService(payments PaymentsSource, tables *TableService, log *logrus.Logger) *ReportService {
	return &ReportService{payments: payments, tables: tables, log: log}
}

// PaymentsWorkbook renders the payments of a period as an xlsx file with one
// row per payment and a total row.
func (s *ReportService) PaymentsWorkbook(ctx context.Context, filter DateFilter) ([]byte, error) {
	agg, err := s.payments.PaymentsByDate(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}

	header := []interface{}{"Payment ID", "Session ID", "Table", "Payment time", "Method", "Amount"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &header); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}
	if err := f.SetRowStyle(paymentsSheet, 1, 1, bold); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}

	for i, p := range agg.Payments {
		tableNumber := ""
		if s.tables != nil {
			tableNumber, err = s.tables.TableNumberBySession(ctx, p.SessionID)
			if err != nil && !utils.IsKind(err, utils.KindNotFound) {
				return nil, err
			}
		}
		amount, _ := p.Amount.Float64()
		row := []interface{}{p.PaymentID, p.SessionID, tableNumber, p.PaymentTime.Format(timeLayoutXLSX), p.PaymentMethod, amount}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(paymentsSheet, cell, &row); err != nil {
			return nil, utils.Internal(err, "failed to build workbook")
		}
	}

	totalRow := len(agg.Payments) + 2
	total, _ := agg.TotalRevenue.Float64()
	totalCells := []interface{}{"Total", nil, nil, nil, agg.Count, total}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetSheetRow(paymentsSheet, cell, &totalCells); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}
	if err := f.SetRowStyle(paymentsSheet, totalRow, totalRow, bold); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}
	if err := f.SetColWidth(paymentsSheet, "A", "F", 16); err != nil {
		return nil, utils.Internal(err, "failed to build workbook")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, utils.Internal(err, "failed to write workbook")
	}

	s.log.WithFields(logrus.Fields{"payments": agg.Count, "year": filter.Year, "month": filter.Month, "day": filter.Day}).Info("Payments workbook exported")
	return buf.Bytes(), nil
}

// ParseMenuWorkbook reads menu items from the first sheet of an xlsx file.
// Columns are name, category and available; the first row is a header.
func ParseMenuWorkbook(r io.Reader) ([]MenuItemInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, utils.Validation("failed to parse excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, utils.Validation("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, utils.Validation("failed to read sheet %s", sheets[0])
	}
	if len(rows) < 2 {
		return nil, utils.Validation("excel must have at least one row of data")
	}

	var items []MenuItemInput
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		item := MenuItemInput{Name: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			item.Category = strings.TrimSpace(row[1])
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			available, err := strconv.ParseBool(strings.TrimSpace(row[2]))
			if err != nil {
				return nil, utils.Validation("row %d: invalid available value %q", i+2, row[2])
			}
			item.Available = &available
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, utils.Validation("no valid rows found")
	}
	return items, nil
}

// PaymentsWorkbookName is the download file name of a revenue export.
func PaymentsWorkbookName(filter DateFilter) string {
	name := fmt.Sprintf("payments-%04d", filter.Year)
	if filter.Month != 0 {
		name += fmt.Sprintf("-%02d", filter.Month)
	}
	if filter.Day != 0 {
		name += fmt.Sprintf("-%02d", filter.Day)
	}
	return name + ".xlsx"
}
