package controllers

import (
	"fmt"
	"net/http"

	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PaymentController struct {
	Payments *services.PaymentService
	Reports  *services.ReportService
}

func NewPaymentController(payments *services.PaymentService, reports *services.ReportService) *PaymentController {
	return &PaymentController{Payments: payments, Reports: reports}
}

// ProcessPayment -> records the payment of a closed session
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	var req struct {
		SessionID     uint            `json:"session_id" binding:"required"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method"`
	}
	if !bindJSON(c, &req) {
		return
	}

	payment, err := pc.Payments.ProcessPayment(c.Request.Context(), req.SessionID, req.Amount, req.PaymentMethod)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Payment processed", payment)
}

func (pc *PaymentController) GetPaymentDetails(c *gin.Context) {
	paymentID, err := uintParam(c, "payment_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	details, err := pc.Payments.PaymentDetails(c.Request.Context(), paymentID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment details", details)
}

func (pc *PaymentController) PaymentsByShift(c *gin.Context) {
	shiftID, err := uintParam(c, "shift_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	agg, err := pc.Payments.PaymentsByShift(c.Request.Context(), shiftID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payments by shift", agg)
}

// PaymentHistory -> payments of ?year=&month=&day=
func (pc *PaymentController) PaymentHistory(c *gin.Context) {
	filter, ok := bindDateFilter(c)
	if !ok {
		return
	}

	agg, err := pc.Payments.PaymentsByDate(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payments by date", agg)
}

func (pc *PaymentController) CustomersByShift(c *gin.Context) {
	shiftID, err := uintParam(c, "shift_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	agg, err := pc.Payments.CustomersByShift(c.Request.Context(), shiftID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customers by shift", agg)
}

func (pc *PaymentController) CustomersHistory(c *gin.Context) {
	filter, ok := bindDateFilter(c)
	if !ok {
		return
	}

	agg, err := pc.Payments.CustomersByDate(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customers by date", agg)
}

// ExportHistory -> the payments of a period as an xlsx download
func (pc *PaymentController) ExportHistory(c *gin.Context) {
	filter, ok := bindDateFilter(c)
	if !ok {
		return
	}

	data, err := pc.Reports.PaymentsWorkbook(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.PaymentsWorkbookName(filter)))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func bindDateFilter(c *gin.Context) (services.DateFilter, bool) {
	var filter services.DateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.RespondError(c, utils.Validation("invalid date filter: %s", err.Error()))
		return filter, false
	}
	return filter, true
}
