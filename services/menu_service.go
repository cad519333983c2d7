package services

import (
	"context"
	"strings"
	"time"

	"github.com/anoiana/soa-version1/kds"
	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MenuItemInput struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category"`
	Available *bool   `json:"available"`
	Img       *string `json:"img"`
}

// MenuItemPatch holds the fields to change; nil fields are left as they are.
type MenuItemPatch struct {
	Name      *string `json:"name"`
	Category  *string `json:"category"`
	Available *bool   `json:"available"`
	Img       *string `json:"img"`
}

type PackageInput struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	PricePerPerson decimal.Decimal `json:"price_per_person"`
	Img            *string         `json:"img"`
}

type PackagePatch struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	PricePerPerson *decimal.Decimal `json:"price_per_person"`
	Img            *string          `json:"img"`
}

type PackageItemRef struct {
	PackageID uint `json:"package_id" binding:"required"`
	ItemID    uint `json:"item_id" binding:"required"`
}

// AvailabilityChange is published when a menu item is enabled or disabled.
type AvailabilityChange struct {
	ItemID      uint      `json:"item_id"`
	Name        string    `json:"name"`
	Available   bool      `json:"available"`
	UpdatedTime time.Time `json:"updated_time"`
}

type MenuService struct {
	db        *gorm.DB
	log       *logrus.Logger
	clock     Clock
	publisher kds.Publisher
}

func NewMenuService(db *gorm.DB, log *logrus.Logger, clock Clock, publisher kds.Publisher) *MenuService {
	return &MenuService{db: db, log: log, clock: clock, publisher: publisher}
}

// CreateMenuItems inserts a batch of menu items in one transaction.
func (s *MenuService) CreateMenuItems(ctx context.Context, inputs []MenuItemInput) ([]models.MenuItem, error) {
	if len(inputs) == 0 {
		return nil, utils.Validation("at least one menu item is required")
	}

	items := make([]models.MenuItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, utils.Validation("items[%d].name is required", i)
		}
		available := true
		if in.Available != nil {
			available = *in.Available
		}
		items = append(items, models.MenuItem{
			Name:      name,
			Category:  in.Category,
			Available: available,
			Img:       in.Img,
		})
	}

	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, utils.Internal(err, "failed to create menu items")
	}
	s.log.WithField("count", len(items)).Info("Menu items created")
	return items, nil
}

// ListMenuItems returns the menu, optionally limited to one category.
func (s *MenuService) ListMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	query := s.db.WithContext(ctx).Order("item_id")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	items := []models.MenuItem{}
	if err := query.Find(&items).Error; err != nil {
		return nil, utils.Internal(err, "failed to list menu items")
	}
	return items, nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, itemID uint) (*models.MenuItem, error) {
	return s.getMenuItem(s.db.WithContext(ctx), itemID)
}

func (s *MenuService) getMenuItem(db *gorm.DB, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := db.First(&item, itemID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("menu item %d not found", itemID)
		}
		return nil, utils.Internal(err, "failed to load menu item")
	}
	return &item, nil
}

// UpdateMenuItem applies a partial update. A change of availability is
// published like SetAvailability does.
func (s *MenuService) UpdateMenuItem(ctx context.Context, itemID uint, patch MenuItemPatch) (*models.MenuItem, error) {
	db := s.db.WithContext(ctx)
	item, err := s.getMenuItem(db, itemID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Img != nil {
		updates["img"] = *patch.Img
	}
	availabilityChanged := patch.Available != nil && *patch.Available != item.Available
	if patch.Available != nil {
		updates["available"] = *patch.Available
	}
	if len(updates) == 0 {
		return item, nil
	}

	if err := db.Model(item).Updates(updates).Error; err != nil {
		return nil, utils.Internal(err, "failed to update menu item")
	}
	item, err = s.getMenuItem(db, itemID)
	if err != nil {
		return nil, err
	}

	if availabilityChanged {
		s.publishAvailability(item)
	}
	return item, nil
}

// DeleteMenuItem removes an item and its package associations. Items already
// ordered cannot be deleted.
func (s *MenuService) DeleteMenuItem(ctx context.Context, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getMenuItem(tx, itemID); err != nil {
			return err
		}

		var ordered int64
		if err := tx.Model(&models.OrderItem{}).Where("item_id = ?", itemID).Count(&ordered).Error; err != nil {
			return utils.Internal(err, "failed to check order items")
		}
		if ordered > 0 {
			return utils.Conflict("menu item %d has been ordered and cannot be deleted", itemID)
		}

		if err := tx.Where("item_id = ?", itemID).Delete(&models.PackageItem{}).Error; err != nil {
			return utils.Internal(err, "failed to remove package associations")
		}
		if err := tx.Delete(&models.MenuItem{}, itemID).Error; err != nil {
			if isForeignKeyViolation(err) {
				return utils.Conflict("menu item %d is still referenced", itemID)
			}
			return utils.Internal(err, "failed to delete menu item")
		}
		return nil
	})
}

// SetAvailability toggles an item and publishes the change to kitchen displays.
func (s *MenuService) SetAvailability(ctx context.Context, itemID uint, available bool) (*models.MenuItem, error) {
	db := s.db.WithContext(ctx)
	item, err := s.getMenuItem(db, itemID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(item).Update("available", available).Error; err != nil {
		return nil, utils.Internal(err, "failed to update availability")
	}
	item.Available = available

	s.log.WithFields(logrus.Fields{"item_id": itemID, "available": available}).Info("Menu item availability changed")
	s.publishAvailability(item)
	return item, nil
}

func (s *MenuService) publishAvailability(item *models.MenuItem) {
	publish(s.publisher, s.log, kds.ChannelMenuUpdates, AvailabilityChange{
		ItemID:      item.ItemID,
		Name:        item.Name,
		Available:   item.Available,
		UpdatedTime: s.clock.Now(),
	})
}

func (s *MenuService) CreatePackage(ctx context.Context, in PackageInput) (*models.BuffetPackage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, utils.Validation("name is required")
	}
	if in.PricePerPerson.IsNegative() {
		return nil, utils.Validation("price_per_person must not be negative")
	}

	pkg := models.BuffetPackage{
		Name:           name,
		Description:    in.Description,
		PricePerPerson: in.PricePerPerson,
		Img:            in.Img,
	}
	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, utils.Internal(err, "failed to create buffet package")
	}
	return &pkg, nil
}

func (s *MenuService) ListPackages(ctx context.Context) ([]models.BuffetPackage, error) {
	packages := []models.BuffetPackage{}
	if err := s.db.WithContext(ctx).Order("package_id").Find(&packages).Error; err != nil {
		return nil, utils.Internal(err, "failed to list buffet packages")
	}
	return packages, nil
}

func (s *MenuService) GetPackage(ctx context.Context, packageID uint) (*models.BuffetPackage, error) {
	return s.getPackage(s.db.WithContext(ctx), packageID)
}

func (s *MenuService) getPackage(db *gorm.DB, packageID uint) (*models.BuffetPackage, error) {
	var pkg models.BuffetPackage
	if err := db.First(&pkg, packageID).Error; err != nil {
		if isNotFound(err) {
			return nil, utils.NotFound("buffet package %d not found", packageID)
		}
		return nil, utils.Internal(err, "failed to load buffet package")
	}
	return &pkg, nil
}

func (s *MenuService) UpdatePackage(ctx context.Context, packageID uint, patch PackagePatch) (*models.BuffetPackage, error) {
	db := s.db.WithContext(ctx)
	pkg, err := s.getPackage(db, packageID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.PricePerPerson != nil {
		if patch.PricePerPerson.IsNegative() {
			return nil, utils.Validation("price_per_person must not be negative")
		}
		updates["price_per_person"] = *patch.PricePerPerson
	}
	if patch.Img != nil {
		updates["img"] = *patch.Img
	}
	if len(updates) == 0 {
		return pkg, nil
	}

	if err := db.Model(pkg).Updates(updates).Error; err != nil {
		return nil, utils.Internal(err, "failed to update buffet package")
	}
	return s.getPackage(db, packageID)
}

// DeletePackage removes a package and its item associations. Sessions bound
// to it keep running without a package.
func (s *MenuService) DeletePackage(ctx context.Context, packageID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getPackage(tx, packageID); err != nil {
			return err
		}
		if err := tx.Where("package_id = ?", packageID).Delete(&models.PackageItem{}).Error; err != nil {
			return utils.Internal(err, "failed to remove package associations")
		}
		if err := tx.Model(&models.TableSession{}).Where("package_id = ?", packageID).
			Update("package_id", nil).Error; err != nil {
			return utils.Internal(err, "failed to unbind package from sessions")
		}
		if err := tx.Delete(&models.BuffetPackage{}, packageID).Error; err != nil {
			return utils.Internal(err, "failed to delete buffet package")
		}
		return nil
	})
}

// MenuItemsByPackage lists the menu items of a package.
func (s *MenuService) MenuItemsByPackage(ctx context.Context, packageID uint) ([]models.MenuItem, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.getPackage(db, packageID); err != nil {
		return nil, err
	}

	items := []models.MenuItem{}
	err := db.Joins("JOIN package_items ON package_items.item_id = menu_items.item_id").
		Where("package_items.package_id = ?", packageID).
		Order("menu_items.item_id").
		Find(&items).Error
	if err != nil {
		return nil, utils.Internal(err, "failed to list package items")
	}
	return items, nil
}

// AddItemsToPackage associates menu items with packages. Pairs that already
// exist are ignored.
func (s *MenuService) AddItemsToPackage(ctx context.Context, refs []PackageItemRef) ([]models.PackageItem, error) {
	if len(refs) == 0 {
		return nil, utils.Validation("at least one package item is required")
	}

	added := make([]models.PackageItem, 0, len(refs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range refs {
			if _, err := s.getPackage(tx, ref.PackageID); err != nil {
				return err
			}
			if _, err := s.getMenuItem(tx, ref.ItemID); err != nil {
				return err
			}

			link := models.PackageItem{PackageID: ref.PackageID, ItemID: ref.ItemID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return utils.Internal(err, "failed to add item to package")
			}
			added = append(added, link)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *MenuService) RemoveItemFromPackage(ctx context.Context, packageID, itemID uint) error {
	res := s.db.WithContext(ctx).
		Where("package_id = ? AND item_id = ?", packageID, itemID).
		Delete(&models.PackageItem{})
	if res.Error != nil {
		return utils.Internal(res.Error, "failed to remove item from package")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound("menu item %d is not in package %d", itemID, packageID)
	}
	return nil
}
