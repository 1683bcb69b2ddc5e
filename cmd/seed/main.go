package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/shresth2708/edu-api/config"
	"github.com/shresth2708/edu-api/pkg/helpers"
)

// Seeds the initial ADMIN account. Admins cannot self-register, so this is
// the only way one comes into existence.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := getenv("SEED_ADMIN_EMAIL", "admin@edu.local")
	password := getenv("SEED_ADMIN_PASSWORD", "Adm1n!pass")

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	referral, err := helpers.GenReferralCode("Platform", "Admin")
	if err != nil {
		log.Fatalf("failed to generate referral code: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, first_name, last_name, role, referral_code, is_email_verified)
		VALUES ($1, $2, 'Platform', 'Admin', 'ADMIN', $3, TRUE)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id
	`, email, hash, referral).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
