// seed-demo bootstraps a fresh database: document number sequences,
// counters, the estimate validity setting, an admin user and a small
// starter catalog.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	adminUsername = "backofficeAdmin"
	adminPassword = "B@ckOffice!Admin1"
	adminEmail    = "admin@backoffice.local"
)

var sequenceDefaults = map[string]string{
	"job_number_sequence":      "JOB-{year}-{counter:05d}",
	"job_counter":              "0",
	"estimate_number_sequence": "EST-{year}{month}-{counter:04d}",
	"estimate_counter":         "0",
	"invoice_number_sequence":  "INV-{year}-{counter:05d}",
	"invoice_counter":          "0",
	"po_number_sequence":       "PO-{year}-{counter:04d}",
	"po_counter":               "0",
	"bill_number_sequence":     "BILL-{year}-{counter:04d}",
	"bill_counter":             "0",
	"estimate_validity_days":   "30",
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	for key, value := range sequenceDefaults {
		cfg := models.Configuration{Key: key, Value: value}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&cfg).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed configuration %s: %v\n", key, err)
			os.Exit(1)
		}
	}
	fmt.Println("seeded number sequences and counters")

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", adminUsername).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if _, err := models.RegisterUser(ctx, &models.NewUser{
			Username: adminUsername,
			Email:    adminEmail,
			Password: adminPassword,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created admin user", adminUsername)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup admin user: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Println("admin user already present")
	}

	seedCatalog(ctx, db)
	fmt.Println("seed-demo finished")
}

func seedCatalog(ctx context.Context, db *gorm.DB) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.ItemType{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	labour := models.ItemType{Name: "Labour", Taxable: utils.NewFalse()}
	material := models.ItemType{Name: "Material", Taxable: utils.NewTrue()}
	if err := db.WithContext(ctx).Create(&labour).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed item types: %v\n", err)
		return
	}
	if err := db.WithContext(ctx).Create(&material).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed item types: %v\n", err)
		return
	}

	items := []models.NewPriceListItem{
		{ItemTypeId: labour.ID, Code: "LAB-STD", Units: "hour", Description: "Standard labour",
			PurchasePrice: decimal.RequireFromString("45.00"), SellingPrice: decimal.RequireFromString("85.00")},
		{ItemTypeId: material.ID, Code: "MAT-PLY-18", Units: "sheet", Description: "Plywood 18mm",
			PurchasePrice: decimal.RequireFromString("32.50"), SellingPrice: decimal.RequireFromString("55.00")},
		{ItemTypeId: material.ID, Code: "MAT-SCREW-50", Units: "box", Description: "Screws 50mm box of 200",
			PurchasePrice: decimal.RequireFromString("8.20"), SellingPrice: decimal.RequireFromString("14.75")},
	}
	for i := range items {
		if _, err := models.CreatePriceListItem(ctx, &items[i]); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed price list item %s: %v\n", items[i].Code, err)
			return
		}
	}
	fmt.Println("seeded starter catalog")
}
