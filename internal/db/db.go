package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.WorkingHours{},
		&models.BlockedSlot{},
		&models.Client{},
		&models.Appointment{},
		&models.AppointmentService{},
		&models.LoyaltyProfile{},
		&models.LoyaltyHistory{},
		&models.Discount{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// uma única entrada de conclusão por agendamento
	if err := db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS ux_loyalty_histories_completion
        ON loyalty_histories (appointment_id)
        WHERE action IN ('SERVICE_COMPLETED', 'PACKAGE_COMPLETED')
    `).Error; err != nil {
		return fmt.Errorf("migrate completion index: %w", err)
	}

	repaired, err := RepairPackageFlags(db)
	if err != nil {
		return err
	}
	if repaired > 0 {
		log.Info().Int("appointments", repaired).Msg("legacy package flags repaired")
	}

	return nil
}

// RepairPackageFlags sets is_package once on rows written before the flag
// existed. Rows created by the booking flow are never touched.
func RepairPackageFlags(db *gorm.DB) (int, error) {
	var legacy []models.Appointment
	if err := db.
		Preload("Services.Service").
		Where("package_flag_source IS NULL OR package_flag_source = ''").
		Find(&legacy).Error; err != nil {
		return 0, fmt.Errorf("load legacy appointments: %w", err)
	}

	for _, ap := range legacy {
		if err := db.Model(&models.Appointment{}).
			Where("id = ?", ap.ID).
			Updates(map[string]any{
				"is_package":          loyalty.ClassifyLegacy(&ap),
				"package_flag_source": models.PackageFlagFromLegacyRepair,
			}).Error; err != nil {
			return 0, fmt.Errorf("repair appointment %d: %w", ap.ID, err)
		}
	}

	return len(legacy), nil
}
