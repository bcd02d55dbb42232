package audit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListImports godoc
// @Summary List import audit entries
// @Description Query the append-only import audit log, newest first
// @Tags audit
// @Produce json
// @Param master query string false "Master type key"
// @Param status query string false "success | partial | failed"
// @Param user query string false "Actor substring"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {array} ImportAuditLog
// @Router /api/audit/imports [get]
func (ctrl *AuditController) ListImports(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := QueryFilters{
		Master:       c.Query("master"),
		Status:       EntryStatus(c.Query("status")),
		UserContains: c.Query("user"),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.To = t
		}
	}

	logs, err := ctrl.Service.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(logs)
}
