package controllers

import (
	"net/http"

	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetMenuItems -> the whole menu, optionally one ?category=
func (mc *MenuController) GetMenuItems(c *gin.Context) {
	items, err := mc.Menu.ListMenuItems(c.Request.Context(), c.Query("category"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}

func (mc *MenuController) GetMenuItem(c *gin.Context) {
	itemID, err := uintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	item, err := mc.Menu.GetMenuItem(c.Request.Context(), itemID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}

// CreateMenuItems -> accepts a JSON array of items
func (mc *MenuController) CreateMenuItems(c *gin.Context) {
	var req []services.MenuItemInput
	if !bindJSON(c, &req) {
		return
	}

	items, err := mc.Menu.CreateMenuItems(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu items created", items)
}

// ImportMenuItems -> creates menu items from an uploaded xlsx file
func (mc *MenuController) ImportMenuItems(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, utils.Validation("file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.RespondError(c, utils.Validation("failed to open uploaded file"))
		return
	}
	defer file.Close()

	inputs, err := services.ParseMenuWorkbook(file)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	items, err := mc.Menu.CreateMenuItems(c.Request.Context(), inputs)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu items imported", items)
}

func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	itemID, err := uintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var patch services.MenuItemPatch
	if !bindJSON(c, &patch) {
		return
	}

	item, err := mc.Menu.UpdateMenuItem(c.Request.Context(), itemID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	itemID, err := uintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := mc.Menu.DeleteMenuItem(c.Request.Context(), itemID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", nil)
}

func (mc *MenuController) GetPackages(c *gin.Context) {
	packages, err := mc.Menu.ListPackages(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet packages", packages)
}

func (mc *MenuController) GetPackage(c *gin.Context) {
	packageID, err := uintParam(c, "package_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	pkg, err := mc.Menu.GetPackage(c.Request.Context(), packageID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package", pkg)
}

func (mc *MenuController) CreatePackage(c *gin.Context) {
	var req services.PackageInput
	if !bindJSON(c, &req) {
		return
	}

	pkg, err := mc.Menu.CreatePackage(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Buffet package created", pkg)
}

func (mc *MenuController) UpdatePackage(c *gin.Context) {
	packageID, err := uintParam(c, "package_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var patch services.PackagePatch
	if !bindJSON(c, &patch) {
		return
	}

	pkg, err := mc.Menu.UpdatePackage(c.Request.Context(), packageID, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package updated", pkg)
}

func (mc *MenuController) DeletePackage(c *gin.Context) {
	packageID, err := uintParam(c, "package_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := mc.Menu.DeletePackage(c.Request.Context(), packageID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package deleted", nil)
}

func (mc *MenuController) GetPackageItems(c *gin.Context) {
	packageID, err := uintParam(c, "package_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	items, err := mc.Menu.MenuItemsByPackage(c.Request.Context(), packageID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Buffet package items", items)
}

// AddPackageItems -> accepts a JSON array of {package_id, item_id}
func (mc *MenuController) AddPackageItems(c *gin.Context) {
	var req []services.PackageItemRef
	if !bindJSON(c, &req) {
		return
	}

	links, err := mc.Menu.AddItemsToPackage(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Items added to buffet package", links)
}

func (mc *MenuController) RemovePackageItem(c *gin.Context) {
	packageID, err := uintParam(c, "package_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	itemID, err := uintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := mc.Menu.RemoveItemFromPackage(c.Request.Context(), packageID, itemID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from buffet package", nil)
}
