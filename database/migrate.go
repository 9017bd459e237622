package database

import (
	"errors"
	"fmt"

	"crisislink_backend/internal/config"
	"crisislink_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm opens (or reuses) the GORM connection from the configured DSN.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate creates or updates the schema for every model.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	// uuid_generate_v4 defaults need the extension before any table exists
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Skill{},
		&models.VolunteerProfile{},
		&models.VolunteerSkill{},
		&models.EmergencyRequest{},
		&models.EmergencyRequiredSkill{},
		&models.Assignment{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return seedSkillCatalog(db)
}

// seedSkillCatalog inserts the baseline skills on first run. Existing rows
// are left untouched.
func seedSkillCatalog(db *gorm.DB) error {
	baseline := []models.Skill{
		{Name: "First Aid", Category: models.SkillCategoryMedical, Description: "Basic first aid and CPR certification"},
		{Name: "Emergency Nursing", Category: models.SkillCategoryMedical, Description: "Licensed nursing in emergency settings"},
		{Name: "Search and Rescue", Category: models.SkillCategoryRescue, Description: "Ground search and rescue operations"},
		{Name: "Water Rescue", Category: models.SkillCategoryRescue, Description: "Swiftwater and open water rescue"},
		{Name: "Truck Driving", Category: models.SkillCategoryLogistics, Description: "Heavy vehicle transport of supplies"},
		{Name: "Supply Coordination", Category: models.SkillCategoryLogistics, Description: "Warehouse and distribution management"},
		{Name: "Electrical Work", Category: models.SkillCategoryTechnical, Description: "Field electrical repairs"},
		{Name: "Structural Assessment", Category: models.SkillCategoryTechnical, Description: "Damaged building safety evaluation"},
		{Name: "Radio Operation", Category: models.SkillCategoryCommunication, Description: "Amateur and emergency band radio"},
		{Name: "Interpreting", Category: models.SkillCategoryCommunication, Description: "Field interpretation for affected communities"},
	}

	for _, skill := range baseline {
		err := db.Where("name = ?", skill.Name).First(&models.Skill{}).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&skill).Error; err != nil {
			return fmt.Errorf("failed to seed skill %q: %w", skill.Name, err)
		}
	}
	return nil
}
