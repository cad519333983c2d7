package controllers

import (
	"net/http"

	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

// OrderController serves the front-of-house flow: opening and closing tables,
// choosing a buffet package and placing orders.
type OrderController struct {
	Tables *services.TableService
	Orders *services.OrderService
}

func NewOrderController(tables *services.TableService, orders *services.OrderService) *OrderController {
	return &OrderController{Tables: tables, Orders: orders}
}

// OpenTable -> starts a session on a ready table
func (oc *OrderController) OpenTable(c *gin.Context) {
	var req struct {
		TableNumber       string `json:"table_number" binding:"required"`
		NumberOfCustomers int    `json:"number_of_customers"`
		SecretCode        string `json:"secret_code"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := oc.Tables.OpenTable(c.Request.Context(), req.TableNumber, req.NumberOfCustomers, req.SecretCode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table opened", session)
}

// CloseTable -> ends the open session and returns the bill summary
func (oc *OrderController) CloseTable(c *gin.Context) {
	var req struct {
		SecretCode string `json:"secret_code"`
	}
	if !bindJSON(c, &req) {
		return
	}

	summary, err := oc.Tables.CloseTable(c.Request.Context(), c.Param("table_number"), req.SecretCode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table closed", summary)
}

// ConfirmOrder -> places an order with its items on an open table
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	var req struct {
		TableNumber string               `json:"table_number" binding:"required"`
		Items       []services.OrderLine `json:"items"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.Orders.CreateOrderWithItems(c.Request.Context(), req.TableNumber, req.Items)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order confirmed", order)
}

func (oc *OrderController) UpdatePackage(c *gin.Context) {
	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		PackageID   uint   `json:"package_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	session, err := oc.Tables.UpdatePackageForTable(c.Request.Context(), req.TableNumber, req.PackageID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package updated", session)
}

// GetActiveSession -> the open session of a table
func (oc *OrderController) GetActiveSession(c *gin.Context) {
	session, err := oc.Tables.GetActiveSession(c.Request.Context(), c.Param("table_number"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active session", session)
}

func (oc *OrderController) SessionTable(c *gin.Context) {
	sessionID, err := uintParam(c, "session_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	tableNumber, err := oc.Tables.TableNumberBySession(c.Request.Context(), sessionID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session table", gin.H{
		"session_id":   sessionID,
		"table_number": tableNumber,
	})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order details", order)
}
