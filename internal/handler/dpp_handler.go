package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classboard/classboard-api/internal/dto"
	"github.com/classboard/classboard-api/internal/middleware"
	"github.com/classboard/classboard-api/internal/service"
	"github.com/classboard/classboard-api/internal/utils"
)

// DPPHandler manages daily practice problem endpoints.
type DPPHandler struct {
	service service.DPPService
	logger  zerolog.Logger
}

// NewDPPHandler builds a DPP handler instance.
func NewDPPHandler(service service.DPPService, logger zerolog.Logger) *DPPHandler {
	return &DPPHandler{
		service: service,
		logger:  logger.With().Str("component", "dpp_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DPPHandler) Register(router fiber.Router) {
	router.Post("", middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Get("/:id", h.get)
	router.Delete("/:id", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Get("/:id/submissions", middleware.WithAuth(h.listSubmissions, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
	router.Post("/:id/submit", middleware.WithAuth(h.submitMCQ, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/:id/submit-files", middleware.WithAuth(h.submitFiles, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Post("/submissions/:submissionId/grade", middleware.WithAuth(h.gradeSubmission, middleware.AuthOptions{Role: middleware.AuthRoleTeacher}))
}

// RegisterStudent attaches the classroom-scoped listing route.
func (h *DPPHandler) RegisterStudent(router fiber.Router) {
	router.Get("/classrooms/:classroomId/dpps", middleware.WithAuth(h.listForClassroom, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
}

func (h *DPPHandler) create(c *fiber.Ctx) error {
	var payload dto.DPPCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	dpp, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "practice problem created", dpp)
}

func (h *DPPHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := userIDFromContext(c)
	var dpp dto.DPPResponse
	if userRoleFromContext(c) == "teacher" {
		dpp, err = h.service.GetForTeacher(c.Context(), id, userID)
	} else {
		dpp, err = h.service.GetForStudent(c.Context(), id, userID)
	}
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice problem retrieved", dpp)
}

func (h *DPPHandler) listForClassroom(c *fiber.Ctx) error {
	classroomID, err := parseUintParam(c, "classroomId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dpps, err := h.service.ListForClassroom(c.Context(), classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice problems retrieved", dpps)
}

func (h *DPPHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, userIDFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "practice problem deleted", nil)
}

func (h *DPPHandler) submitMCQ(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.MCQSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.SubmitMCQ(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "practice submitted", submission)
}

func (h *DPPHandler) submitFiles(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	submission, err := h.service.SubmitFiles(c.Context(), id, userIDFromContext(c), files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "files submitted", submission)
}

func (h *DPPHandler) gradeSubmission(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "submissionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DPPGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.GradeFileSubmission(c.Context(), submissionID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *DPPHandler) listSubmissions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListSubmissions(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *DPPHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDPPNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "practice problem not found")
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrWrongDPPType):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "wrong practice problem type for this endpoint")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "already submitted")
	case errors.Is(err, service.ErrTooManyFiles):
		return utils.SendError(c, fiber.StatusBadRequest, "too many files")
	case errors.Is(err, service.ErrFileTooLarge):
		return utils.SendError(c, fiber.StatusBadRequest, "file exceeds size limit")
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		return utils.SendError(c, fiber.StatusBadRequest, "file type not allowed")
	case errors.Is(err, service.ErrFileStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "file storage unavailable")
	case errors.Is(err, service.ErrScoreOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, "score out of range")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
