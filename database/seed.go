package database

import (
	"fmt"
	"strconv"

	"github.com/anoiana/soa-version1/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	Tables        int
}

// Seed inserts the admin account, numbered tables and a starter menu. Rows
// that already exist are left untouched, so Seed can be run repeatedly.
func Seed(db *gorm.DB, log *logrus.Logger, opts SeedOptions) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if opts.AdminEmail != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			admin := models.User{
				Name:     opts.AdminName,
				Email:    opts.AdminEmail,
				Password: string(hashed),
				Role:     models.RoleAdmin,
			}
			if err := tx.Where(models.User{Email: opts.AdminEmail}).FirstOrCreate(&admin).Error; err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
		}

		for i := 1; i <= opts.Tables; i++ {
			table := models.Table{TableNumber: strconv.Itoa(i), Status: models.TableStatusReady}
			if err := tx.Where(models.Table{TableNumber: table.TableNumber}).FirstOrCreate(&table).Error; err != nil {
				return fmt.Errorf("seed table %d: %w", i, err)
			}
		}

		var count int64
		if err := tx.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			log.Info("Menu already seeded")
			return nil
		}

		items := []models.MenuItem{
			{Name: "Pork belly", Category: "grill", Available: true},
			{Name: "Beef brisket", Category: "grill", Available: true},
			{Name: "Squid", Category: "seafood", Available: true},
			{Name: "Kimchi", Category: "side", Available: true},
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("seed menu items: %w", err)
		}

		pkg := models.BuffetPackage{
			Name:           "Classic",
			Description:    "Grill and sides",
			PricePerPerson: decimal.NewFromInt(100000),
		}
		if err := tx.Create(&pkg).Error; err != nil {
			return fmt.Errorf("seed package: %w", err)
		}
		for _, item := range items {
			if err := tx.Create(&models.PackageItem{PackageID: pkg.PackageID, ItemID: item.ItemID}).Error; err != nil {
				return fmt.Errorf("seed package item: %w", err)
			}
		}

		log.WithFields(logrus.Fields{"tables": opts.Tables, "menu_items": len(items)}).Info("Seed data inserted")
		return nil
	})
}
