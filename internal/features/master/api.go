package master

import (
	"go-erp/internal/config"
	"go-erp/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MasterApi struct {
	controller *MasterController
	config     *config.Config
}

func NewMasterApi(controller *MasterController, config *config.Config) *MasterApi {
	return &MasterApi{
		controller: controller,
		config:     config,
	}
}

func (h *MasterApi) Setup(app *fiber.App) {
	masters := app.Group("/api/masters", middleware.AuthMiddleware(h.config.SkipAuth))

	masters.Get("/", h.controller.GetCatalog)
	masters.Get("/go-live", h.controller.GetGoLive)
	masters.Get("/:type/records", h.controller.ListExisting)
	masters.Get("/:type/template", h.controller.DownloadTemplate)
}
