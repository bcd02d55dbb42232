package master

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type MasterController struct {
	Service MasterService
}

func NewMasterController(service MasterService) *MasterController {
	return &MasterController{Service: service}
}

// GetCatalog godoc
// @Summary List master types
// @Description Returns the master catalog with per-type status, record count and import readiness
// @Tags masters
// @Produce json
// @Success 200 {array} Overview
// @Router /api/masters [get]
func (ctrl *MasterController) GetCatalog(c *fiber.Ctx) error {
	catalog, err := ctrl.Service.Catalog(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(catalog)
}

// GetGoLive godoc
// @Summary Go-live readiness
// @Description Reports whether every mandatory master has completed onboarding
// @Tags masters
// @Produce json
// @Success 200 {object} GoLiveStatus
// @Router /api/masters/go-live [get]
func (ctrl *MasterController) GetGoLive(c *fiber.Ctx) error {
	status, err := ctrl.Service.GoLive(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}

// ListExisting godoc
// @Summary List existing records
// @Description Returns {id, label} options for a master type
// @Tags masters
// @Produce json
// @Param type path string true "Master type key"
// @Success 200 {array} RecordOption
// @Failure 404 {object} map[string]interface{}
// @Router /api/masters/{type}/records [get]
func (ctrl *MasterController) ListExisting(c *fiber.Ctx) error {
	options, err := ctrl.Service.ListExisting(c.UserContext(), c.Params("type"))
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(options)
}

// DownloadTemplate godoc
// @Summary Download upload template
// @Description Returns an xlsx template with the master type's canonical headers
// @Tags masters
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param type path string true "Master type key"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /api/masters/{type}/template [get]
func (ctrl *MasterController) DownloadTemplate(c *fiber.Ctx) error {
	masterKey := c.Params("type")
	data, err := ctrl.Service.GenerateTemplate(masterKey)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_template.xlsx"`, masterKey))
	return c.Send(data)
}
