package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"rbxmart_echo/internal/handlers"
	appMiddleware "rbxmart_echo/internal/middleware"
	"rbxmart_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	var db *gorm.DB
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err = services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migration
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer cache.Close()

	// Initialize payment gateway from ACTIVE_PAYMENT_GATEWAY
	gateway, err := services.NewPaymentGatewayFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}
	log.Printf("Active payment gateway: %s", gateway.Name())

	// Services
	checkoutService := services.NewCheckoutService(db, gateway)
	reconcileService := services.NewReconcileService(db)
	viewService := services.NewTransactionViewService(db)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient, db)
	checkoutHandler := handlers.NewCheckoutHandler(db, checkoutService)
	midtransService := services.NewMidtransService()
	webhookHandler := handlers.NewWebhookHandler(db, cache, midtransService, services.NewDuitkuService(), reconcileService)
	transactionHandler := handlers.NewTransactionHandler(db, viewService)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(db, cache)
	productHandler := handlers.NewProductHandler(db)
	adminHandler := handlers.NewAdminHandler(db, reconcileService, midtransService)
	userHandler := handlers.NewUserHandler(db)

	// Public routes
	e.POST("/api/auth/sync", authHandler.SyncAccount)
	e.GET("/api/products", productHandler.ListProducts)
	e.GET("/api/payment-methods", paymentMethodHandler.ListPaymentMethods)
	e.POST("/api/checkout", checkoutHandler.SubmitCheckout, appMiddleware.OptionalAuth(authClient, db))
	e.GET("/api/transactions/:invoice", transactionHandler.GetTransaction, appMiddleware.OptionalAuth(authClient, db))

	// Gateway callbacks
	e.POST("/api/webhooks/midtrans", webhookHandler.HandleMidtrans)
	e.POST("/api/webhooks/duitku", webhookHandler.HandleDuitku)

	// Protected routes
	protected := e.Group("/api")
	protected.Use(appMiddleware.RequireAuth(authClient, db))
	protected.GET("/me", authHandler.GetProfile)
	protected.GET("/transactions", transactionHandler.ListTransactions)

	// Admin routes
	admin := e.Group("/api/admin")
	admin.Use(appMiddleware.RequireAuth(authClient, db))
	admin.Use(appMiddleware.RequireAdmin())
	admin.GET("/transactions", adminHandler.ListTransactions)
	admin.POST("/transactions/status", adminHandler.OverrideStatus)
	admin.POST("/transactions/recheck", adminHandler.RecheckTransaction)
	admin.GET("/transactions/export", adminHandler.ExportTransactionsCSV)
	admin.GET("/stats", adminHandler.GetStats)
	admin.POST("/products", productHandler.CreateProduct)
	admin.PUT("/products/:id", productHandler.UpdateProduct)
	admin.DELETE("/products/:id", productHandler.DeleteProduct)
	admin.POST("/payment-methods", paymentMethodHandler.CreatePaymentMethod)
	admin.PUT("/payment-methods/:id", paymentMethodHandler.UpdatePaymentMethod)
	admin.GET("/users", userHandler.ListUsers)
	admin.PUT("/users/:id/tier", userHandler.UpdateUserTier)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
