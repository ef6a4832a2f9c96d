package constants

import (
	"fmt"
	"time"
)

// Redis cache keys and TTLs for the reservation engine.
// Pattern: fieldbook:{module}:{operation}:{identifier}:{params?}
//
// Only reference data and availability listings are cached. Lock state and
// payment state are never cached; Postgres is their single source of truth.

// ================== CACHE TTL DURATIONS ==================

const (
	// Reference data - changes rarely
	TTL_FIELD_CATALOG = 1 * time.Hour
	TTL_TIME_WINDOWS  = 1 * time.Hour
	TTL_HOLIDAY_RULES = 6 * time.Hour

	// Availability listings - a held slot may appear held until the next
	// write-path sweep touches it, so keep this short
	TTL_AVAILABILITY = 30 * time.Second
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "fieldbook"
)

const (
	CACHE_KEY_FIELDS_LIST   = CACHE_PREFIX + ":fields:list"
	CACHE_KEY_FIELD_DETAIL  = CACHE_PREFIX + ":fields:detail:uuid:" // + field-id
	CACHE_KEY_TIME_WINDOWS  = CACHE_PREFIX + ":fields:windows"
	CACHE_KEY_HOLIDAY_RULES = CACHE_PREFIX + ":pricing:holidays:active"
	CACHE_KEY_AVAILABILITY  = CACHE_PREFIX + ":locks:availability" // + :field:X:date:Y
)

// BuildFieldDetailKey builds the cache key for a single field
func BuildFieldDetailKey(fieldID string) string {
	return CACHE_KEY_FIELD_DETAIL + fieldID
}

// BuildAvailabilityKey builds the cache key for a field/date availability listing
func BuildAvailabilityKey(fieldID, usageDate string) string {
	return fmt.Sprintf("%s:field:%s:date:%s", CACHE_KEY_AVAILABILITY, fieldID, usageDate)
}
