package controllers

import (
	"strconv"

	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

// uintParam parses the path parameter name as a positive id.
func uintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, utils.Validation("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// bindJSON binds the request body, reporting binding failures as validation errors.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utils.RespondError(c, utils.Validation("invalid request body: %s", err.Error()))
		return false
	}
	return true
}
