// Command syncnow runs a single sync pass against the configured server and
// exits. Useful for draining the pending set from a cron job or by hand
// while the API process is down.
package main

import (
	"context"
	"log"
	"os"

	"smartretail-pos/internal/repository"
	syncengine "smartretail-pos/internal/sync"
	"smartretail-pos/internal/watch"
	"smartretail-pos/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// 3. Build the engine. Without SYNC_URL the pass runs against the mock
	// uploader, which still exercises the full status flow.
	txRepo := repository.NewTransactionRepo(db)
	var uploader syncengine.Uploader = syncengine.NewMockUploader()
	if url := os.Getenv("SYNC_URL"); url != "" {
		uploader = syncengine.NewHTTPUploader(url)
	}
	engine := syncengine.NewEngine(txRepo, uploader, watch.NewBroker())

	// 4. One pass
	pending, err := engine.PendingCount()
	if err != nil {
		log.Fatalf("❌ Failed to count pending: %v", err)
	}
	log.Printf("%d transactions pending upload", pending)

	if err := engine.Run(context.Background()); err != nil {
		log.Fatalf("❌ Sync pass failed: %v", err)
	}

	log.Println("✅ Sync pass complete")
}
