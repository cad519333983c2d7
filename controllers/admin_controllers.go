package controllers

import (
	"net/http"

	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Dashboard *services.DashboardService
}

func NewAdminController(dashboard *services.DashboardService) *AdminController {
	return &AdminController{Dashboard: dashboard}
}

// GetDashboardStats -> table, order and revenue counters for today
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Dashboard.Stats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}
