package controllers

import (
	"net/http"
	"strconv"

	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

type ShiftController struct {
	Shifts *services.ShiftService
}

func NewShiftController(shifts *services.ShiftService) *ShiftController {
	return &ShiftController{Shifts: shifts}
}

func (sc *ShiftController) ListShifts(c *gin.Context) {
	shifts, err := sc.Shifts.ListShiftsFromToday(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shifts", shifts)
}

// CurrentSecretCode -> the active shift with its secret code, staff only
func (sc *ShiftController) CurrentSecretCode(c *gin.Context) {
	info, err := sc.Shifts.CurrentShiftSecretCode(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current shift", info)
}

// GenerateShifts -> creates today's shifts; ?raise_if_full=true turns
// "nothing to do" into a conflict
func (sc *ShiftController) GenerateShifts(c *gin.Context) {
	raiseIfFull := false
	if raw := c.Query("raise_if_full"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, utils.Validation("invalid raise_if_full %q", raw))
			return
		}
		raiseIfFull = parsed
	}

	result, err := sc.Shifts.CreateShiftsForToday(c.Request.Context(), raiseIfFull)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	code := http.StatusOK
	if len(result.Created) > 0 {
		code = http.StatusCreated
	}
	utils.RespondJSON(c, code, result.Message, result)
}
