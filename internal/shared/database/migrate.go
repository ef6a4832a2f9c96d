package database

import (
	"fieldbook/internal/bookings"
	"fieldbook/internal/fields"
	"fieldbook/internal/locks"
	"fieldbook/internal/payments"
	"fieldbook/internal/pricing"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&fields.Field{},
		&fields.TimeWindow{},
		&pricing.HolidayRule{},
		&locks.SlotLock{},
		&bookings.Booking{},
		&bookings.AddOnCharge{},
		&payments.Payment{},
		&payments.ExternalTransaction{},
	)
}
