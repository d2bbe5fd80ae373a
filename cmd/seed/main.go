// Command seed loads the reference region dataset into the database.
// Re-running it refreshes existing regions in place (matched by ISO code).
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/cialabs/carbonrisk/internal/region"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	store := region.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to ensure regions table: %v", err)
	}

	n, err := region.Seed(ctx, store)
	if err != nil {
		log.Fatalf("Seed failed after %d regions: %v", n, err)
	}
	log.Printf("Seeded %d regions", n)
}
