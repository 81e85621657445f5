package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Creates a user directly in the database for local testing, with an
// optional starting coin balance.
func main() {
	email := flag.String("email", "test@example.com", "email")
	username := flag.String("username", "testuser", "username")
	password := flag.String("password", "password123", "password")
	coins := flag.Int64("coins", 1000, "starting coin balance")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	var userID int64
	err = db.QueryRow(ctx,
		`INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		*email, *username, string(hash),
	).Scan(&userID)
	if err != nil {
		log.Fatalf("create user: %v", err)
	}

	if *coins > 0 {
		var balance int64
		err = db.QueryRow(ctx,
			`SELECT wallet_adjust_balance_v2($1, $2, 'adjustment', NULL, NULL, '{"source":"create_test_user"}'::jsonb)`,
			userID, *coins,
		).Scan(&balance)
		if err != nil {
			log.Fatalf("credit coins: %v", err)
		}
		fmt.Printf("user %d created with balance %d\n", userID, balance)
		return
	}

	fmt.Printf("user %d created\n", userID)
}
