package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/cozyhive/backend-pos/internal/catalog"
	"github.com/cozyhive/backend-pos/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	st := store.New(pool)

	seedUsers(ctx, pool)
	seedCatalog(ctx, st)
	seedSettings(ctx, st)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) {
	users := []struct {
		Email    string
		Password string
		Role     string
	}{
		{"admin@cozyhive.com", envOrDefault("SEED_ADMIN_PASSWORD", "admin123"), store.RoleAdmin},
		{"cashier@cozyhive.com", envOrDefault("SEED_CASHIER_PASSWORD", "cashier123"), store.RoleCashier},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.Password, argon2id.DefaultParams)
		if err != nil {
			log.Printf("Failed to hash password for %s: %v", u.Email, err)
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (email, password_hash, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO NOTHING;
		`, u.Email, hash, u.Role)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedCatalog(ctx context.Context, st *store.Store) {
	fmt.Println("Seeding Catalog...")
	seeded, err := st.SeedItems(ctx, catalog.DefaultSeed())
	if err != nil {
		log.Printf("Failed to seed catalog: %v", err)
		return
	}
	if !seeded {
		log.Println("Catalog already has items, skipping")
	}
}

func seedSettings(ctx context.Context, st *store.Store) {
	fmt.Println("Checking Settings...")
	cfg, err := st.GetSettings(ctx)
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return
	}
	log.Printf("Settings: rate=%d currency=%s theme=%s", cfg.HourlyRate, cfg.Currency, cfg.Theme)
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
