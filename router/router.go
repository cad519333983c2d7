package router

import (
	"net/http"

	"github.com/anoiana/soa-version1/controllers"
	"github.com/anoiana/soa-version1/kds"
	"github.com/anoiana/soa-version1/middlewares"
	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Log    *logrus.Logger
	Tokens *utils.TokenManager
	Hub    *kds.Hub

	Shifts    *services.ShiftService
	Tables    *services.TableService
	Orders    *services.OrderService
	Menu      *services.MenuService
	Payments  *services.PaymentService
	Reports   *services.ReportService
	Dashboard *services.DashboardService
	Identity  services.IdentityProvider
	// Accounts is set when the local identity provider is used.
	Accounts *services.LocalIdentity

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.AllowedOrigins))
	if d.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(d.RateLimitRPS, d.RateLimitBurst).RateLimit())
	}

	orderCtrl := controllers.NewOrderController(d.Tables, d.Orders)
	tableCtrl := controllers.NewTableController(d.Tables)
	kitchenCtrl := controllers.NewKitchenController(d.Orders, d.Menu, d.Hub, d.AllowedOrigins, d.Log)
	menuCtrl := controllers.NewMenuController(d.Menu)
	paymentCtrl := controllers.NewPaymentController(d.Payments, d.Reports)
	shiftCtrl := controllers.NewShiftController(d.Shifts)
	userCtrl := controllers.NewUserController(d.Identity, d.Accounts, d.Shifts, d.Tokens, d.Log)
	adminCtrl := controllers.NewAdminController(d.Dashboard)

	auth := middlewares.AuthMiddleware(d.Tokens)
	staff := middlewares.RoleCheck(models.RoleAdmin, models.RoleEmployee)
	admin := middlewares.RoleCheck(models.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "ok", nil)
	})

	order := r.Group("/order")
	{
		order.POST("/open-table", orderCtrl.OpenTable)
		order.PUT("/close/:table_number", orderCtrl.CloseTable)
		order.POST("/confirm", orderCtrl.ConfirmOrder)
		order.PUT("/table/update-package", orderCtrl.UpdatePackage)
		order.GET("/table/:table_number/session", orderCtrl.GetActiveSession)
		order.GET("/session/:session_id/table", orderCtrl.SessionTable)
		order.GET("/:order_id", orderCtrl.GetOrder)
	}

	menu := r.Group("/menu")
	{
		menu.GET("/items", menuCtrl.GetMenuItems)
		menu.GET("/items/:item_id", menuCtrl.GetMenuItem)
		menu.GET("/packages", menuCtrl.GetPackages)
		menu.GET("/packages/:package_id", menuCtrl.GetPackage)
		menu.GET("/packages/:package_id/items", menuCtrl.GetPackageItems)
		menu.GET("/tables", tableCtrl.GetAllTables)

		menuAdmin := menu.Group("", auth, admin)
		menuAdmin.POST("/items", menuCtrl.CreateMenuItems)
		menuAdmin.POST("/items/import", menuCtrl.ImportMenuItems)
		menuAdmin.PUT("/items/:item_id", menuCtrl.UpdateMenuItem)
		menuAdmin.DELETE("/items/:item_id", menuCtrl.DeleteMenuItem)
		menuAdmin.POST("/packages", menuCtrl.CreatePackage)
		menuAdmin.PUT("/packages/:package_id", menuCtrl.UpdatePackage)
		menuAdmin.DELETE("/packages/:package_id", menuCtrl.DeletePackage)
		menuAdmin.POST("/packages/items", menuCtrl.AddPackageItems)
		menuAdmin.DELETE("/packages/:package_id/items/:item_id", menuCtrl.RemovePackageItem)
	}

	tables := r.Group("/tables", auth)
	{
		tables.POST("", admin, tableCtrl.CreateTable)
		tables.PATCH("/:table_number/status", staff, tableCtrl.UpdateTableStatus)
	}

	kitchen := r.Group("/kitchen")
	{
		kitchen.GET("/ws", kitchenCtrl.KitchenSocket)
		kitchen.GET("/ws/menu", kitchenCtrl.MenuSocket)

		kitchenStaff := kitchen.Group("", auth, staff)
		kitchenStaff.GET("/get-orders", kitchenCtrl.GetOrders)
		kitchenStaff.GET("/orders", kitchenCtrl.OrdersByStatus)
		kitchenStaff.GET("/orders/:order_id/items", kitchenCtrl.OrderItems)
		kitchenStaff.PATCH("/order-items/:order_item_id/status", kitchenCtrl.UpdateItemStatus)
		kitchenStaff.POST("/orders/:order_id/complete", kitchenCtrl.CompleteOrder)
		kitchenStaff.PUT("/menu_items/:item_id/availability", kitchenCtrl.SetAvailability)
	}

	shifts := r.Group("/shifts")
	{
		shifts.GET("", shiftCtrl.ListShifts)
		shifts.GET("/secret-code", auth, staff, shiftCtrl.CurrentSecretCode)
		shifts.POST("/generate", auth, admin, shiftCtrl.GenerateShifts)
	}

	payment := r.Group("/payment")
	{
		payment.POST("", paymentCtrl.ProcessPayment)

		reports := payment.Group("", auth, admin)
		reports.GET("/shift/:shift_id", paymentCtrl.PaymentsByShift)
		reports.GET("/history", paymentCtrl.PaymentHistory)
		reports.GET("/history/export", paymentCtrl.ExportHistory)
		reports.GET("/customers/shift/:shift_id", paymentCtrl.CustomersByShift)
		reports.GET("/customers/history", paymentCtrl.CustomersHistory)

		payment.GET("/:payment_id", paymentCtrl.GetPaymentDetails)
	}

	login := middlewares.NewStrictRateLimiter().RateLimit()
	user := r.Group("/user")
	{
		user.POST("/admin/login", login, userCtrl.AdminLogin)
		user.POST("/employee/login", login, userCtrl.EmployeeLogin)
		user.POST("/send-password-reset", login, userCtrl.SendPasswordReset)
		user.POST("/logout", auth, userCtrl.Logout)
		user.GET("/profile", auth, userCtrl.GetProfile)
		user.POST("/admin/register", auth, admin, userCtrl.Register)
	}

	r.GET("/admin/dashboard", auth, admin, adminCtrl.GetDashboardStats)

	return r
}
