package models

import (
	"log"

	"bitbucket.org/smallops/backoffice_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &PaymentTerm{}, &Contact{},
		&ItemType{}, &PriceListItem{},
		&Job{}, &Estimate{}, &WorkOrder{}, &Task{}, &Invoice{},
		&PurchaseOrder{}, &Bill{}, &LineItem{},
		&Configuration{}, &History{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
