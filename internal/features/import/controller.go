package import_feature

import (
	"errors"

	"go-erp/internal/features/master"
	"go-erp/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type ImportController struct {
	Service ImportService
	Events  *EventHub
}

func NewImportController(service ImportService, events *EventHub) *ImportController {
	return &ImportController{Service: service, Events: events}
}

type setMappingRequest struct {
	Mappings []struct {
		SourceColumn string `json:"source_column"`
		TargetField  string `json:"target_field"`
	} `json:"mappings"`
}

type resolveConflictRequest struct {
	RowIndex   int              `json:"row_index"`
	Field      string           `json:"field"`
	Action     ResolutionAction `json:"action"`
	SelectedID string           `json:"selected_id"`
}

// StartSession godoc
// @Summary Start an import session
// @Description Uploads a csv/xlsx file for a master type, auto-maps its columns and opens a pipeline session
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param master formData string true "Master type key"
// @Param file formData file true "Spreadsheet file (csv or xlsx)"
// @Success 201 {object} ImportSession
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/import/sessions [post]
func (ctrl *ImportController) StartSession(c *fiber.Ctx) error {
	masterKey := c.FormValue("master")
	if masterKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "master is required"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open uploaded file"})
	}
	defer file.Close()

	session, err := ctrl.Service.StartImport(c.UserContext(), masterKey, fileHeader.Filename, file, ctrl.actor(c))
	if err != nil {
		return ctrl.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetSession godoc
// @Summary Get an import session
// @Description Returns the session with its current stage, mappings, issues, conflicts and review summary
// @Tags import
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/import/sessions/{id} [get]
func (ctrl *ImportController) GetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	session, err := ctrl.Service.GetSession(id)
	if err != nil {
		return ctrl.respondError(c, err)
	}
	summary, err := ctrl.Service.Review(id)
	if err != nil {
		return ctrl.respondError(c, err)
	}
	return c.JSON(fiber.Map{"session": session, "summary": summary})
}

// SetMappings godoc
// @Summary Override column mappings
// @Description Applies manual mapping changes; only legal while the session is in the mapping stage
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body setMappingRequest true "Mapping overrides"
// @Success 200 {object} ImportSession
// @Failure 409 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/mappings [put]
func (ctrl *ImportController) SetMappings(c *fiber.Ctx) error {
	var req setMappingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Mappings) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mappings is required"})
	}

	id := c.Params("id")
	var session ImportSession
	var err error
	for _, m := range req.Mappings {
		session, err = ctrl.Service.SetMapping(id, m.SourceColumn, m.TargetField)
		if err != nil {
			return ctrl.respondError(c, err)
		}
	}
	return c.JSON(session)
}

// Advance godoc
// @Summary Advance the pipeline
// @Description Moves the session to its next stage, enforcing the leaving stage's gate
// @Tags import
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} ImportSession
// @Failure 409 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/advance [post]
func (ctrl *ImportController) Advance(c *fiber.Ctx) error {
	session, err := ctrl.Service.Advance(c.UserContext(), c.Params("id"))
	if err != nil {
		return ctrl.respondError(c, err)
	}
	return c.JSON(session)
}

// ResolveConflict godoc
// @Summary Resolve a reference conflict
// @Description Records a map-existing, create-new or skip decision for one conflicting cell
// @Tags import
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param body body resolveConflictRequest true "Resolution"
// @Success 200 {object} ImportSession
// @Failure 400 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/conflicts/resolve [post]
func (ctrl *ImportController) ResolveConflict(c *fiber.Ctx) error {
	var req resolveConflictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	session, err := ctrl.Service.ResolveConflict(c.Params("id"), req.RowIndex, req.Field, req.Action, req.SelectedID)
	if err != nil {
		return ctrl.respondError(c, err)
	}
	return c.JSON(session)
}

// Publish godoc
// @Summary Publish the session
// @Description Commits all non-skipped rows atomically, updates master state and appends the audit entry
// @Tags import
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} PublishResult
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/import/sessions/{id}/publish [post]
func (ctrl *ImportController) Publish(c *fiber.Ctx) error {
	result, err := ctrl.Service.Publish(c.UserContext(), c.Params("id"), ctrl.actor(c))
	if err != nil {
		return ctrl.respondError(c, err)
	}
	return c.JSON(result)
}

// CancelSession godoc
// @Summary Cancel the session
// @Description Discards the session; nothing outside it was mutated
// @Tags import
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/import/sessions/{id} [delete]
func (ctrl *ImportController) CancelSession(c *fiber.Ctx) error {
	if err := ctrl.Service.Cancel(c.Params("id")); err != nil {
		return ctrl.respondError(c, err)
	}
	return c.JSON(fiber.Map{"cancelled": true})
}

// StageEvents streams stage transitions for a session over a websocket.
// The socket closes when the session completes or is discarded.
func (ctrl *ImportController) StageEvents(conn *websocket.Conn) {
	sessionID := conn.Params("id")
	events := ctrl.Events.Subscribe(sessionID)
	defer ctrl.Events.Unsubscribe(sessionID, events)
	defer conn.Close()

	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
		if event.Stage == StageCompleted {
			return
		}
	}
}

func (ctrl *ImportController) actor(c *fiber.Ctx) string {
	claims, _ := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	return utils.ActorFromClaims(claims)
}

// respondError maps the pipeline's typed errors onto HTTP statuses.
func (ctrl *ImportController) respondError(c *fiber.Ctx, err error) error {
	var (
		notFound        *master.NotFoundError
		blocked         *master.DependencyBlockedError
		storeErr        *master.StoreError
		parseErr        *ParseError
		sessionMissing  *SessionNotFoundError
		conflictMissing *ConflictNotFoundError
		active          *ActiveSessionError
		stage           *StageError
		incomplete      *MappingIncompleteError
		duplicate       *DuplicateMappingError
		invalidSel      *InvalidSelectionError
		unresolved      *UnresolvedConflictsError
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &sessionMissing), errors.As(err, &conflictMissing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &parseErr), errors.As(err, &invalidSel), errors.As(err, &duplicate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &blocked), errors.As(err, &active), errors.As(err, &stage),
		errors.As(err, &incomplete), errors.As(err, &unresolved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &storeErr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}
