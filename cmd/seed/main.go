package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"examcraft-be/internal/model"
	"examcraft-be/pkg/database"
	"examcraft-be/pkg/exam/blueprint"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Subscription Plans...")
	seedPlans(db)

	log.Println("Seeding Default Blueprint...")
	seedDefaultBlueprint(db)

	log.Println("Seeding Admin User...")
	seedAdminUser(db)

	log.Println("Seeding Notification Types...")
	SeedNotificationTypes(db)

	log.Println("Seeding completed!")
}

func seedPlans(db *gorm.DB) {
	plans := []model.SubscriptionPlan{
		{
			Name:           "Free",
			Slug:           "free",
			Description:    "Attempt published papers and chat with the study assistant within a daily quota",
			Price:          0,
			BillingPeriod:  "monthly",
			ChatDailyLimit: 20,
			ChatEnabled:    true,
			IsActive:       true,
			SortOrder:      1,
		},
		{
			Name:           "Pro",
			Slug:           "pro",
			Description:    "Expanded study assistant chat, full revision history and priority grading",
			Price:          49000,
			TaxRate:        0.11,
			BillingPeriod:  "monthly",
			ChatDailyLimit: 100,
			ChatEnabled:    true,
			IsActive:       true,
			SortOrder:      2,
		},
	}

	for _, p := range plans {
		var existing model.SubscriptionPlan
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			log.Printf("Plan '%s' already exists, skipping...", p.Slug)
			continue
		}

		if err := db.Create(&p).Error; err != nil {
			log.Printf("Error creating plan '%s': %v", p.Slug, err)
		} else {
			log.Printf("Created plan: %s (%s)", p.Name, p.Slug)
		}
	}
}

func seedDefaultBlueprint(db *gorm.DB) {
	def := blueprint.Default()

	raw, err := json.Marshal(def)
	if err != nil {
		log.Printf("Error marshaling default blueprint: %v", err)
		return
	}

	var existing model.Blueprint
	if err := db.Where("name = ?", def.Title).First(&existing).Error; err == nil {
		log.Printf("Blueprint '%s' already exists, skipping...", def.Title)
		return
	}

	bp := model.Blueprint{
		Name:       def.Title,
		Definition: datatypes.JSON(raw),
		IsDefault:  true,
	}
	if err := db.Create(&bp).Error; err != nil {
		log.Printf("Error creating default blueprint: %v", err)
	} else {
		log.Printf("Created default blueprint: %s", def.Title)
	}
}

func seedAdminUser(db *gorm.DB) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@examcraft.local"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin12345"
		log.Println("Warning: SEED_ADMIN_PASSWORD not set, using default credentials")
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		log.Printf("Admin user '%s' already exists, skipping...", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing admin password: %v", err)
		return
	}

	hashStr := string(hash)
	now := time.Now()
	admin := model.User{
		Email:           email,
		PasswordHash:    &hashStr,
		FullName:        "Platform Administrator",
		Role:            "admin",
		Status:          "active",
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Error creating admin user: %v", err)
	} else {
		log.Printf("Created admin user: %s", email)
	}
}
