package services

import (
	"context"
	"sort"
	"time"

	"github.com/anoiana/soa-version1/kds"
	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// itemTransitions lists the statuses an order item may move to.
var itemTransitions = map[string][]string{
	models.OrderItemStatusOrdered: {models.OrderItemStatusServed},
	models.OrderItemStatusServed:  {},
}

var orderStatuses = map[string]bool{
	models.OrderStatusOrdered:    true,
	models.OrderStatusInProgress: true,
	models.OrderStatusServed:     true,
}

// OrderLine is one requested menu item of a new order.
type OrderLine struct {
	ItemID   uint `json:"item_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// KitchenItem is an order item as shown on kitchen displays.
type KitchenItem struct {
	OrderItemID uint   `json:"order_item_id"`
	OrderID     uint   `json:"order_id"`
	ItemID      uint   `json:"item_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// KitchenOrder is an order with its items as shown on kitchen displays.
type KitchenOrder struct {
	OrderID     uint          `json:"order_id"`
	SessionID   uint          `json:"session_id"`
	TableNumber string        `json:"table_number,omitempty"`
	OrderTime   time.Time     `json:"order_time"`
	Status      string        `json:"status"`
	Items       []KitchenItem `json:"items"`
}

// ItemStatusUpdate is the outcome of an item transition. It is also the
// payload published on the status update channel.
type ItemStatusUpdate struct {
	OrderItemID uint   `json:"order_item_id"`
	OrderID     uint   `json:"order_id"`
	ItemID      uint   `json:"item_id"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	OrderStatus string `json:"order_status"`
}

type OrderService struct {
	db        *gorm.DB
	log       *logrus.Logger
	clock     Clock
	publisher kds.Publisher
}

func NewOrderService(db *gorm.DB, log *logrus.Logger, clock Clock, publisher kds.Publisher) *OrderService {
	return &OrderService{db: db, log: log, clock: clock, publisher: publisher}
}

func normalizeItemStatus(status string) string {
	if status == "" {
		return models.OrderItemStatusOrdered
	}
	return status
}

// ValidateItemTransition checks a single order item transition. An unknown
// target is InvalidStatus, an unknown stored status is an Internal fault and
// a disallowed move is InvalidTransition.
func ValidateItemTransition(current, next string) error {
	if _, ok := itemTransitions[next]; !ok {
		return utils.InvalidStatus("invalid status %q, allowed statuses are ordered and served", next)
	}
	current = normalizeItemStatus(current)
	allowed, ok := itemTransitions[current]
	if !ok {
		return utils.Internal(nil, "order item has invalid stored status %q", current)
	}
	for _, status := range allowed {
		if status == next {
			return nil
		}
	}
	return utils.InvalidTransition(current, next)
}

// DeriveOrderStatus computes an order status from all of its item statuses:
// served when every item is served, in_progress when only some are, and
// current otherwise.
func DeriveOrderStatus(current string, itemStatuses []string) string {
	if len(itemStatuses) == 0 {
		return current
	}
	served := 0
	for _, status := range itemStatuses {
		if normalizeItemStatus(status) == models.OrderItemStatusServed {
			served++
		}
	}
	switch {
	case served == len(itemStatuses):
		return models.OrderStatusServed
	case served > 0:
		return models.OrderStatusInProgress
	default:
		return current
	}
}

// CreateOrderWithItems places an order on the open session of a table. The
// order and all of its items are written in one transaction; an unknown or
// unavailable menu item rejects the whole order.
func (s *OrderService) CreateOrderWithItems(ctx context.Context, tableNumber string, lines []OrderLine) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, utils.Validation("order must contain at least one item")
	}
	for i, line := range lines {
		if line.ItemID == 0 {
			return nil, utils.Validation("items[%d].item_id is required", i)
		}
		if line.Quantity <= 0 {
			return nil, utils.Validation("items[%d].quantity must be greater than 0", i)
		}
	}

	var (
		order       models.Order
		tableNumOut string
		names       = map[uint]string{}
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, session, err := requireOpenSession(tx, tableNumber)
		if err != nil {
			return err
		}
		tableNumOut = table.TableNumber

		ids := make([]uint, 0, len(lines))
		seen := map[uint]bool{}
		for _, line := range lines {
			if !seen[line.ItemID] {
				seen[line.ItemID] = true
				ids = append(ids, line.ItemID)
			}
		}

		var menuItems []models.MenuItem
		if err := tx.Where("item_id IN ?", ids).Find(&menuItems).Error; err != nil {
			return utils.Internal(err, "failed to load menu items")
		}
		available := map[uint]bool{}
		for _, item := range menuItems {
			available[item.ItemID] = item.Available
			names[item.ItemID] = item.Name
		}

		var missing, unavailable []uint
		for _, id := range ids {
			isAvailable, exists := available[id]
			switch {
			case !exists:
				missing = append(missing, id)
			case !isAvailable:
				unavailable = append(unavailable, id)
			}
		}
		if len(missing) > 0 || len(unavailable) > 0 {
			sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
			sort.Slice(unavailable, func(i, j int) bool { return unavailable[i] < unavailable[j] })
			return utils.NotFound("menu items not found %v or unavailable %v", missing, unavailable)
		}

		order = models.Order{
			SessionID: session.SessionID,
			OrderTime: s.clock.Now(),
			Status:    models.OrderStatusOrdered,
			Items:     make([]models.OrderItem, 0, len(lines)),
		}
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ItemID:   line.ItemID,
				Quantity: line.Quantity,
				Status:   models.OrderItemStatusOrdered,
			})
		}
		if err := tx.Create(&order).Error; err != nil {
			return utils.Internal(err, "failed to create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"table_number": tableNumOut,
		"order_id":     order.OrderID,
		"items":        len(order.Items),
	}).Info("Order created")

	publish(s.publisher, s.log, kds.ChannelOrders, toKitchenOrder(order, tableNumOut, names))
	return &order, nil
}

// UpdateOrderItemStatus moves one item forward and recomputes the status of
// its order.
func (s *OrderService) UpdateOrderItemStatus(ctx context.Context, orderItemID uint, newStatus string) (*ItemStatusUpdate, error) {
	if _, ok := itemTransitions[newStatus]; !ok {
		return nil, utils.InvalidStatus("invalid status %q, allowed statuses are ordered and served", newStatus)
	}

	var update ItemStatusUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, orderItemID).Error; err != nil {
			if isNotFound(err) {
				return utils.NotFound("order item %d not found", orderItemID)
			}
			return utils.Internal(err, "failed to load order item")
		}

		if err := ValidateItemTransition(item.Status, newStatus); err != nil {
			return err
		}

		res := tx.Model(&models.OrderItem{}).
			Where("order_item_id = ? AND (status = ? OR status IS NULL OR status = '')", item.OrderItemID, item.CurrentStatus()).
			Update("status", newStatus)
		if res.Error != nil {
			return utils.Internal(res.Error, "failed to update order item")
		}
		if res.RowsAffected == 0 {
			return utils.Conflict("order item %d was changed concurrently", orderItemID)
		}

		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return utils.Internal(err, "failed to load order %d", item.OrderID)
		}
		var statuses []string
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", item.OrderID).Pluck("COALESCE(status, '')", &statuses).Error; err != nil {
			return utils.Internal(err, "failed to load order items")
		}

		derived := DeriveOrderStatus(order.Status, statuses)
		if derived != order.Status {
			if err := tx.Model(&order).Update("status", derived).Error; err != nil {
				return utils.Internal(err, "failed to update order status")
			}
		}

		update = ItemStatusUpdate{
			OrderItemID: item.OrderItemID,
			OrderID:     item.OrderID,
			ItemID:      item.ItemID,
			Quantity:    item.Quantity,
			Status:      newStatus,
			OrderStatus: derived,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_item_id": update.OrderItemID,
		"order_id":      update.OrderID,
		"status":        update.Status,
		"order_status":  update.OrderStatus,
	}).Info("Order item status updated")

	publish(s.publisher, s.log, kds.ChannelStatusUpdates, update)
	return &update, nil
}

// CompleteOrder marks an order and every one of its items served, skipping
// the per item transition rules.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if isNotFound(err) {
				return utils.NotFound("order %d not found", orderID)
			}
			return utils.Internal(err, "failed to load order")
		}

		res := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).
			Update("status", models.OrderItemStatusServed)
		if res.Error != nil {
			return utils.Internal(res.Error, "failed to complete order items")
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
				return utils.Internal(err, "failed to count order items")
			}
			if count == 0 {
				return utils.NotFound("order %d has no items", orderID)
			}
		}

		if err := tx.Model(&order).Update("status", models.OrderStatusServed).Error; err != nil {
			return utils.Internal(err, "failed to complete order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("order_id", orderID).Info("Order completed")
	publish(s.publisher, s.log, kds.ChannelStatusUpdates, map[string]interface{}{
		"order_id":     orderID,
		"order_status": models.OrderStatusServed,
		"completed":    true,
	})
	return nil
}

// PendingOrders returns orders that still have ordered items, oldest first,
// each with only those items.
func (s *OrderService) PendingOrders(ctx context.Context) ([]KitchenOrder, error) {
	db := s.db.WithContext(ctx)
	pendingIDs := db.Model(&models.OrderItem{}).
		Select("order_id").
		Where("status = ? OR status IS NULL OR status = ''", models.OrderItemStatusOrdered)

	var orders []models.Order
	err := db.Where("order_id IN (?)", pendingIDs).
		Preload("Items", "status = ? OR status IS NULL OR status = ''", models.OrderItemStatusOrdered).
		Preload("Items.MenuItem").
		Preload("Session.Table").
		Order("order_time ASC, order_id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load pending orders")
	}

	result := make([]KitchenOrder, 0, len(orders))
	for _, order := range orders {
		if len(order.Items) == 0 {
			continue
		}
		result = append(result, toKitchenOrder(order, sessionTableNumber(order), nil))
	}
	return result, nil
}

// OrdersByStatus lists orders with the given derived status, oldest first.
func (s *OrderService) OrdersByStatus(ctx context.Context, status string) ([]KitchenOrder, error) {
	if !orderStatuses[status] {
		return nil, utils.InvalidStatus("invalid order status %q", status)
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_item_id") }).
		Preload("Items.MenuItem").
		Preload("Session.Table").
		Order("order_time ASC, order_id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load orders")
	}

	result := make([]KitchenOrder, 0, len(orders))
	for _, order := range orders {
		result = append(result, toKitchenOrder(order, sessionTableNumber(order), nil))
	}
	return result, nil
}

// OrderItemsWithMenuName lists the items of an order with their menu names.
func (s *OrderService) OrderItemsWithMenuName(ctx context.Context, orderID uint) ([]KitchenItem, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Order{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return nil, utils.Internal(err, "failed to load order")
	}
	if count == 0 {
		return nil, utils.NotFound("order %d not found", orderID)
	}

	items := []KitchenItem{}
	err := db.Table("order_items").
		Select("order_items.order_item_id, order_items.order_id, order_items.item_id, menu_items.name, order_items.quantity, COALESCE(order_items.status, '') AS status").
		Joins("JOIN menu_items ON menu_items.item_id = order_items.item_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.order_item_id").
		Scan(&items).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to load order items")
	}
	for i := range items {
		items[i].Status = normalizeItemStatus(items[i].Status)
	}
	return items, nil
}

// GetOrder returns an order with its items and their menu items.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_item_id") }).
		Preload("Items.MenuItem").
		First(&order, orderID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("order %d not found", orderID)
		}
		return nil, utils.Internal(err, "failed to load order")
	}
	return &order, nil
}

func sessionTableNumber(order models.Order) string {
	if order.Session != nil && order.Session.Table != nil {
		return order.Session.Table.TableNumber
	}
	return ""
}

// toKitchenOrder maps an order for kitchen displays. names overrides menu
// names when the items were not preloaded.
func toKitchenOrder(order models.Order, tableNumber string, names map[uint]string) KitchenOrder {
	ko := KitchenOrder{
		OrderID:     order.OrderID,
		SessionID:   order.SessionID,
		TableNumber: tableNumber,
		OrderTime:   order.OrderTime,
		Status:      order.Status,
		Items:       make([]KitchenItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		name := "Unknown"
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		} else if n, ok := names[item.ItemID]; ok {
			name = n
		}
		ko.Items = append(ko.Items, KitchenItem{
			OrderItemID: item.OrderItemID,
			OrderID:     order.OrderID,
			ItemID:      item.ItemID,
			Name:        name,
			Quantity:    item.Quantity,
			Status:      item.CurrentStatus(),
		})
	}
	return ko
}
