package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// At most one live hold per slot. INSERT is the check-and-insert:
	// losers of a race get a unique violation instead of a double hold.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_slot_locks_holding
		ON slot_locks (field_id, usage_date, window_id)
		WHERE status = 'HOLDING';
	`).Error
	if err != nil {
		return err
	}

	// At most one non-cancelled booking per window slot. Custom-time
	// bookings have no window and are overlap-checked in the service.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_active_slot
		ON bookings (field_id, usage_date, window_id)
		WHERE status <> 'CANCELLED' AND window_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	// Sweep query scans live holds by expiry
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_slot_locks_holding_expires
		ON slot_locks (expires_at)
		WHERE status = 'HOLDING';
	`).Error
	if err != nil {
		return err
	}

	// Availability queries by field and date
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_field_date
		ON bookings (field_id, usage_date);
	`).Error
	if err != nil {
		return err
	}

	// At most one payment awaiting approval per booking, method and
	// purpose. A duplicate create gets a unique violation.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_payments_awaiting
		ON payments (booking_id, method, purpose)
		WHERE status = 'AWAITING_APPROVAL';
	`).Error
	if err != nil {
		return err
	}

	// Reconciliation scans pending payments by age
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payments_status_created
		ON payments (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
