package main

import (
	"log"
	"os"
	"strings"

	"fcstats/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block
		// others. Referenced tables go first so FKs apply cleanly.
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := db.AutoMigrate(&models.Pokemon{}); err != nil {
			log.Printf("migration warning (pokemons): %v", err)
		}
		if err := db.AutoMigrate(&models.Teammate{}); err != nil {
			log.Printf("migration warning (teammates): %v", err)
		}
		if err := db.AutoMigrate(&models.Game{}); err != nil {
			log.Printf("migration warning (games): %v", err)
		}
		if err := db.AutoMigrate(&models.PlayerStat{}); err != nil {
			log.Printf("migration warning (player_stats): %v", err)
		}
	}
	seedDB()
}

// catalogSeed is the playable character list. Entries are inserted if
// missing so new characters can be appended over time (Blissey arrived after
// launch).
var catalogSeed = []models.Pokemon{
	{ID: "GARDEVOIR", Name: "Gardevoir", Category: models.CategoryAttacker},
	{ID: "PIKACHU", Name: "Pikachu", Category: models.CategoryAttacker},
	{ID: "GRENINJA", Name: "Greninja", Category: models.CategoryAttacker},
	{ID: "VENUSAUR", Name: "Venusaur", Category: models.CategoryAttacker},
	{ID: "A_NINETALES", Name: "Alolan Ninetales", Category: models.CategoryAttacker},
	{ID: "CRAMORANT", Name: "Cramorant", Category: models.CategoryAttacker},
	{ID: "CINDERACE", Name: "Cinderace", Category: models.CategoryAttacker},
	{ID: "ZERAORA", Name: "Zeraora", Category: models.CategorySpeedster},
	{ID: "TALONFLAME", Name: "Talonflame", Category: models.CategorySpeedster},
	{ID: "ABSOL", Name: "Absol", Category: models.CategorySpeedster},
	{ID: "GENGAR", Name: "Gengar", Category: models.CategorySpeedster},
	{ID: "CHARIZARD", Name: "Charizard", Category: models.CategoryAllRounder},
	{ID: "LUCARIO", Name: "Lucario", Category: models.CategoryAllRounder},
	{ID: "MACHAMP", Name: "Machamp", Category: models.CategoryAllRounder},
	{ID: "GARCHOMP", Name: "Garchomp", Category: models.CategoryAllRounder},
	{ID: "SNORLAX", Name: "Snorlax", Category: models.CategoryDefender},
	{ID: "CRUSTLE", Name: "Crustle", Category: models.CategoryDefender},
	{ID: "SLOWBRO", Name: "Slowbro", Category: models.CategoryDefender},
	{ID: "ELDEGOSS", Name: "Eldegoss", Category: models.CategorySupporter},
	{ID: "MR_MIME", Name: "Mr. Mime", Category: models.CategorySupporter},
	{ID: "WIGGLYTUFF", Name: "Wigglytuff", Category: models.CategorySupporter},
	{ID: "BLISSEY", Name: "Blissey", Category: models.CategorySupporter},
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}

	for _, p := range catalogSeed {
		var cnt int64
		db.Model(&models.Pokemon{}).Where("id = ?", p.ID).Count(&cnt)
		if cnt == 0 {
			if err := db.Create(&p).Error; err != nil {
				log.Printf("failed to seed character %s: %v", p.ID, err)
			}
		}
	}

	for _, pseudo := range rosterFromEnv() {
		var cnt int64
		db.Model(&models.Teammate{}).Where("pseudo = ?", pseudo).Count(&cnt)
		if cnt == 0 {
			if err := db.Create(&models.Teammate{Pseudo: pseudo}).Error; err != nil {
				log.Printf("failed to seed teammate %s: %v", pseudo, err)
			}
		}
	}
}

// rosterFromEnv reads the initial club roster from TEAM_ROSTER, a
// comma-separated list of pseudos. Entries can also be added later through
// the admin API.
func rosterFromEnv() []string {
	v := os.Getenv("TEAM_ROSTER")
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
