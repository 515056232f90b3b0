// Package routes defines the API routing configuration.
// It wires the repository, cache and ledger service together and groups
// endpoints by the role required to call them.
package routes

import (
	"tally/internal/handlers"
	"tally/internal/middleware"
	"tally/internal/models"
	"tally/internal/repositories"
	"tally/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	walletRepo := repositories.NewWalletRepository(db)

	ledgerService := ledger.NewService(
		walletRepo,
		repositories.CacheService,
		ledger.Config{},
		&ledger.NoopMetricsCollector{},
	)
	walletHandler := handlers.NewWalletHandler(ledgerService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api", middleware.Auth())

	// Read path for the authenticated user.
	api.Get("/wallets", walletHandler.GetWallets)
	api.Get("/wallets/:type", walletHandler.GetWallet)
	api.Get("/wallets/:type/history", walletHandler.GetHistory)

	// Operator surface.
	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Post("/wallets/adjust", walletHandler.AdminAdjust)

	// Service-to-service surface for order/reward flows.
	internal := api.Group("/internal", middleware.RequireRole(models.RoleService))
	internal.Post("/wallets/adjust", walletHandler.SystemAdjust)
	internal.Post("/wallets/reserve", walletHandler.SystemReserve)
	internal.Post("/wallets/release", walletHandler.SystemRelease)
	internal.Post("/wallets/consume", walletHandler.SystemConsume)
}
