package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartretail-pos/internal/handler"
	"smartretail-pos/internal/middleware"
	"smartretail-pos/internal/notify"
	"smartretail-pos/internal/prefs"
	"smartretail-pos/internal/repository"
	"smartretail-pos/internal/scheduler"
	"smartretail-pos/internal/service"
	syncengine "smartretail-pos/internal/sync"
	"smartretail-pos/internal/watch"
	"smartretail-pos/internal/ws"
	"smartretail-pos/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

const (
	syncPeriod        = 15 * time.Minute
	syncMaxRetries    = 3
	firstSyncDelay    = 5 * time.Second
	lowStockPeriod    = 24 * time.Hour
	lowStockFirstRun  = time.Hour
	lowStockThreshold = service.DefaultLowStockThreshold
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// 3. Preference store (session, display name, theme)
	prefsPath := os.Getenv("PREFS_PATH")
	if prefsPath == "" {
		prefsPath = "smartretail_prefs.json"
	}
	session, err := prefs.Open(prefsPath)
	if err != nil {
		log.Fatalf("open preferences: %v", err)
	}

	// 4. Setup WebSocket Hub + watch broker
	wsHub := ws.NewHub()
	go wsHub.Run()
	broker := watch.NewBroker()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)

	invService := service.NewInventoryService(productRepo, broker)
	txService := service.NewTransactionService(db, txRepo, productRepo, broker)
	dashService := service.NewDashboardService(txRepo, productRepo)
	authService := service.NewAuthService(userRepo, session)

	// Uploader is mocked unless a real endpoint is configured.
	var uploader syncengine.Uploader = syncengine.NewMockUploader()
	if url := os.Getenv("SYNC_URL"); url != "" {
		uploader = syncengine.NewHTTPUploader(url)
	}
	engine := syncengine.NewEngine(txRepo, uploader, broker)

	device := scheduler.NewDeviceState()
	scanner := notify.NewScanner(productRepo, notify.NewHubNotifier(wsHub), lowStockThreshold)

	invHandler := handler.NewInventoryHandler(invService)
	txHandler := handler.NewTransactionHandler(txService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	syncHandler := handler.NewSyncHandler(engine)
	deviceHandler := handler.NewDeviceHandler(device)

	// 6. Background jobs
	sched := scheduler.New()
	sched.EnqueueUniquePeriodic(scheduler.Job{
		Name:         "sync_transactions",
		Every:        syncPeriod,
		InitialDelay: syncPeriod, // the 5s one-shot below covers prompt startup sync
		Constraints:  []scheduler.Constraint{scheduler.RequireNetwork(device), scheduler.RequireBatteryNotLow(device)},
		Backoff:      scheduler.DefaultBackoff(),
		MaxRetries:   syncMaxRetries,
		Run:          engine.Run,
		OnExhausted: func() {
			if err := engine.MarkBatchFailed(); err != nil {
				log.Printf("[sync] mark batch failed: %v", err)
			}
		},
	})
	// Drain whatever accumulated while the process was down.
	sched.EnqueueOnce(scheduler.Job{
		Name:         "sync_on_start",
		InitialDelay: firstSyncDelay,
		Constraints:  []scheduler.Constraint{scheduler.RequireNetwork(device)},
		Run:          engine.Run,
	})
	sched.EnqueueUniquePeriodic(scheduler.Job{
		Name:         "low_stock_check",
		Every:        lowStockPeriod,
		InitialDelay: lowStockFirstRun,
		Constraints:  []scheduler.Constraint{scheduler.RequireBatteryNotLow(device)},
		Run:          scanner.Run,
	})

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "SmartRetail POS v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Get("/status", authHandler.Status)
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Device signal Routes. Fed by the host (connectivity daemon, battery
	// monitor), not by a logged-in user, so they sit outside the auth guard.
	api.Get("/device", deviceHandler.GetState)
	api.Post("/device/signal", deviceHandler.Signal)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/change-password", authHandler.ChangePassword)
	protected.Put("/auth/store", authHandler.UpdateStore)

	// Dashboard Routes
	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)
	protected.Get("/dashboard/best-selling", dashHandler.GetBestSelling)
	protected.Get("/dashboard/revenue-trend", dashHandler.GetRevenueTrend)

	// Product Routes
	protected.Get("/products", invHandler.GetProducts)
	protected.Get("/products/low-stock", invHandler.GetLowStock)
	protected.Get("/products/:id", invHandler.GetProduct)
	protected.Post("/products", invHandler.CreateProduct)
	protected.Put("/products/:id", invHandler.UpdateProduct)
	protected.Delete("/products/:id", invHandler.DeleteProduct)

	// Transaction Routes
	protected.Get("/transactions", txHandler.GetTransactions)
	protected.Get("/transactions/:id", txHandler.GetTransaction)
	protected.Get("/transactions/:id/items", txHandler.GetTransactionDetail)
	protected.Get("/transactions/:id/receipt", txHandler.GetReceipt)
	protected.Post("/transactions", txHandler.Checkout)

	// Sync Routes
	protected.Post("/sync", syncHandler.TriggerSync)
	protected.Get("/sync/status", syncHandler.GetSyncStatus)

	// WebSocket Route. Every socket shares the two live queries below; the
	// broker fetches once per change and the hub fans the snapshot out.
	productsSub := broker.Subscribe("products", []string{"products"}, func() (interface{}, error) {
		return invService.Products()
	})
	txSub := broker.Subscribe("transactions", []string{"transactions"}, func() (interface{}, error) {
		return txService.Transactions()
	})
	go wsHub.Forward(productsSub)
	go wsHub.Forward(txSub)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	sched.Stop()
	productsSub.Close()
	txSub.Close()
	if err := session.Close(); err != nil {
		log.Printf("Warning: failed to flush preferences: %v", err)
	}

	log.Println("Server exited")
}
