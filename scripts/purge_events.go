package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Deletes audit events of markets resolved more than -days days ago.
// Postgres only; trades and votes are kept.
func main() {
	days := flag.Int("days", 90, "keep events of markets resolved within this many days")
	dryRun := flag.Bool("dry-run", false, "only count the events that would be deleted")
	flag.Parse()

	if *days <= 0 {
		log.Fatalf("-days must be positive")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	const where = `market_id IN (
		SELECT id FROM markets
		WHERE status = 'resolved' AND resolved_at < NOW() - make_interval(days => $1)
	)`

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM market_events WHERE `+where, *days).Scan(&count); err != nil {
		log.Fatalf("Failed to count events: %v", err)
	}
	log.Printf("Found %d events of markets resolved more than %d days ago", count, *days)

	if *dryRun || count == 0 {
		return
	}

	res, err := db.Exec(`DELETE FROM market_events WHERE `+where, *days)
	if err != nil {
		log.Fatalf("Failed to delete events: %v", err)
	}
	deleted, _ := res.RowsAffected()
	log.Printf("Deleted %d events", deleted)
}
