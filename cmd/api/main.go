package main

import (
	"context"
	"fmt"
	common_api "go-erp/internal/common/api"
	"go-erp/internal/config"
	"go-erp/internal/database"
	"go-erp/internal/features/audit"
	import_feature "go-erp/internal/features/import"
	"go-erp/internal/features/master"
	"go-erp/internal/logger"
	"go-erp/internal/middleware"
	"go-erp/pkg/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Use custom CORS middleware
	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, masterRepo master.MasterRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := masterRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure master indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

// ConfigureJWT injects the signing secret before any request is served.
func ConfigureJWT(cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
}

// StartRecountScheduler ties the record-count reconciliation job to the
// application lifecycle.
func StartRecountScheduler(lc fx.Lifecycle, scheduler *master.RecountScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Master catalog; a bad catalog (cycle, unknown dependency)
			// aborts boot here
			master.NewDefaultRegistry,

			// Initialize Repository
			master.NewMasterRepository,
			audit.NewAuditRepository,

			// Initialize Service
			master.NewMasterService,
			audit.NewAuditService,
			import_feature.NewSpreadsheetParser,
			import_feature.NewSessionStore,
			import_feature.NewEventHub,
			import_feature.NewImportService,

			master.NewRecountScheduler,

			// Initialize Controller
			master.NewMasterController,
			audit.NewAuditController,
			import_feature.NewImportController,

			// Initialize API Routes
			AsRoute(master.NewMasterApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(import_feature.NewImportApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureJWT,

			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartRecountScheduler,
			InitializeIndexes,
		),
	)

	app.Run()
}
