package controllers

import (
	"net/http"

	"github.com/anoiana/soa-version1/kds"
	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// KitchenController serves the kitchen display: order queues, item status
// changes, menu availability and the realtime websocket feeds.
type KitchenController struct {
	Orders *services.OrderService
	Menu   *services.MenuService
	Hub    *kds.Hub
	Log    *logrus.Logger

	upgrader websocket.Upgrader
}

func NewKitchenController(orders *services.OrderService, menu *services.MenuService, hub *kds.Hub, allowedOrigins []string, log *logrus.Logger) *KitchenController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	return &KitchenController{
		Orders: orders,
		Menu:   menu,
		Hub:    hub,
		Log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// GetOrders -> orders that still have items waiting, oldest first
func (kc *KitchenController) GetOrders(c *gin.Context) {
	orders, err := kc.Orders.PendingOrders(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending orders", orders)
}

// OrdersByStatus -> orders with ?status=ordered|in_progress|served
func (kc *KitchenController) OrdersByStatus(c *gin.Context) {
	orders, err := kc.Orders.OrdersByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders", orders)
}

func (kc *KitchenController) OrderItems(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	items, err := kc.Orders.OrderItemsWithMenuName(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order items", items)
}

// UpdateItemStatus -> moves one order item forward
func (kc *KitchenController) UpdateItemStatus(c *gin.Context) {
	orderItemID, err := uintParam(c, "order_item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	update, err := kc.Orders.UpdateOrderItemStatus(c.Request.Context(), orderItemID, req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order item status updated", update)
}

// CompleteOrder -> serves every item of an order at once
func (kc *KitchenController) CompleteOrder(c *gin.Context) {
	orderID, err := uintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := kc.Orders.CompleteOrder(c.Request.Context(), orderID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order completed", gin.H{"order_id": orderID})
}

func (kc *KitchenController) SetAvailability(c *gin.Context) {
	itemID, err := uintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	item, err := kc.Menu.SetAvailability(c.Request.Context(), itemID, *req.Available)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item availability updated", item)
}

// KitchenSocket -> websocket feed of new orders and status updates
func (kc *KitchenController) KitchenSocket(c *gin.Context) {
	kc.serveSocket(c, kds.ChannelOrders, kds.ChannelStatusUpdates)
}

// MenuSocket -> websocket feed of menu availability changes
func (kc *KitchenController) MenuSocket(c *gin.Context) {
	kc.serveSocket(c, kds.ChannelMenuUpdates)
}

func (kc *KitchenController) serveSocket(c *gin.Context, channels ...string) {
	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		kc.Log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	kc.Hub.ServeClient(ws, channels...)
}
