package import_feature

import (
	"go-erp/internal/config"
	"go-erp/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ImportApi struct {
	controller *ImportController
	config     *config.Config
}

func NewImportApi(controller *ImportController, config *config.Config) *ImportApi {
	return &ImportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ImportApi) Setup(app *fiber.App) {
	sessions := app.Group("/api/import/sessions", middleware.AuthMiddleware(h.config.SkipAuth))

	sessions.Post("/", h.controller.StartSession)
	sessions.Get("/:id", h.controller.GetSession)
	sessions.Put("/:id/mappings", h.controller.SetMappings)
	sessions.Post("/:id/advance", h.controller.Advance)
	sessions.Post("/:id/conflicts/resolve", h.controller.ResolveConflict)
	sessions.Post("/:id/publish", h.controller.Publish)
	sessions.Delete("/:id", h.controller.CancelSession)

	sessions.Use("/:id/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	sessions.Get("/:id/events", websocket.New(h.controller.StageEvents))
}
