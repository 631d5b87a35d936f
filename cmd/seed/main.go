package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pdfmark/internal/config"
	"pdfmark/internal/database"
	"pdfmark/internal/domain"
	"pdfmark/internal/repository"
)

func main() {
	username := flag.String("username", os.Getenv("SEED_ADMIN_USERNAME"), "admin username")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", "Administrator", "display name")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("username and password are required (flags or SEED_ADMIN_USERNAME / SEED_ADMIN_PASSWORD)")
	}
	if len(*password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Running migrations...")
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	users := repository.NewUserRepository(db)
	login := domain.NormalizeUsername(*username)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hash password:", err)
	}

	existing, err := users.GetByUsername(ctx, login)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			log.Fatalf("user %q exists and is not an admin", login)
		}
		if err := users.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
			log.Fatal("update password:", err)
		}
		log.Printf("Admin %q already exists, password updated", login)
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatal("lookup admin:", err)
	}

	admin := &domain.User{
		Username:     login,
		Name:         *name,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal("create admin:", err)
	}
	log.Printf("Admin created: %s (id=%d)", admin.Username, admin.ID)
}
