package main

import (
	"fmt"
	"log"

	"fieldbook/internal/fields"
	"fieldbook/internal/pricing"
	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/database"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Fieldbook Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"external_transactions",
		"payments",
		"add_on_charges",
		"bookings",
		"slot_locks",
		"holiday_rules",
		"time_windows",
		"fields",
	}

	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll() error {
	if err := s.seedFields(); err != nil {
		return err
	}
	if err := s.seedTimeWindows(); err != nil {
		return err
	}
	return s.seedHolidayRules()
}

func (s *Seeder) seedFields() error {
	list := []fields.Field{
		{
			Name:        "Sân A1",
			Description: "5-a-side artificial turf, floodlit",
			FieldType:   "FIVE_A_SIDE",
			BasePrice:   200000,
			Status:      fields.FieldStatusActive,
		},
		{
			Name:        "Sân A2",
			Description: "5-a-side artificial turf",
			FieldType:   "FIVE_A_SIDE",
			BasePrice:   180000,
			Status:      fields.FieldStatusActive,
		},
		{
			Name:        "Sân B1",
			Description: "7-a-side hybrid grass, covered stands",
			FieldType:   "SEVEN_A_SIDE",
			BasePrice:   350000,
			Status:      fields.FieldStatusActive,
		},
		{
			Name:        "Sân C1",
			Description: "Full-size 11-a-side, natural grass",
			FieldType:   "ELEVEN_A_SIDE",
			BasePrice:   900000,
			Status:      fields.FieldStatusMaintenance,
		},
	}

	for i := range list {
		if err := s.db.GetPostgreSQL().Create(&list[i]).Error; err != nil {
			return fmt.Errorf("failed to seed field %s: %w", list[i].Name, err)
		}
	}
	fmt.Printf("   ⚽ %d fields seeded\n", len(list))
	return nil
}

func (s *Seeder) seedTimeWindows() error {
	list := []fields.TimeWindow{
		{Label: "Early Morning", StartTime: "05:30", EndTime: "07:00", PriceCoefficient: 0.8},
		{Label: "Morning", StartTime: "07:00", EndTime: "09:00", PriceCoefficient: 1.0},
		{Label: "Midday", StartTime: "11:00", EndTime: "13:00", PriceCoefficient: 0.9},
		{Label: "Afternoon", StartTime: "15:00", EndTime: "17:00", PriceCoefficient: 1.0},
		{Label: "Evening Prime", StartTime: "18:00", EndTime: "19:30", PriceCoefficient: 1.5},
		{Label: "Late Evening", StartTime: "19:30", EndTime: "21:00", PriceCoefficient: 1.4},
		{Label: "Night", StartTime: "21:00", EndTime: "22:30", PriceCoefficient: 1.2},
	}

	for i := range list {
		if err := s.db.GetPostgreSQL().Create(&list[i]).Error; err != nil {
			return fmt.Errorf("failed to seed time window %s: %w", list[i].Label, err)
		}
	}
	fmt.Printf("   🕐 %d time windows seeded\n", len(list))
	return nil
}

func (s *Seeder) seedHolidayRules() error {
	strPtr := func(v string) *string { return &v }

	list := []pricing.HolidayRule{
		{
			Name:           "New Year's Day",
			StartMarker:    "01-01",
			DiscountFactor: 0.85,
			Active:         true,
		},
		{
			Name:           "Reunification & Labor Day",
			StartMarker:    "04-30",
			EndMarker:      strPtr("05-01"),
			DiscountFactor: 0.8,
			Active:         true,
		},
		{
			Name:           "National Day",
			StartMarker:    "09-02",
			DiscountFactor: 0.8,
			Active:         true,
		},
		{
			Name:           "Tết Nguyên Đán 2026",
			StartMarker:    "2026-02-15",
			EndMarker:      strPtr("2026-02-21"),
			DiscountFactor: 0.7,
			Active:         true,
		},
	}

	for i := range list {
		if err := s.db.GetPostgreSQL().Create(&list[i]).Error; err != nil {
			return fmt.Errorf("failed to seed holiday rule %s: %w", list[i].Name, err)
		}
	}
	fmt.Printf("   🎊 %d holiday rules seeded\n", len(list))
	return nil
}
