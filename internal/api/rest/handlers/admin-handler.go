package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/api/rest/middleware"
	"github.com/SundayYogurt/visa_admin/internal/domain"
	"github.com/SundayYogurt/visa_admin/internal/dto"
	"github.com/SundayYogurt/visa_admin/internal/helper"
	"github.com/SundayYogurt/visa_admin/internal/helper/utils"
	"github.com/SundayYogurt/visa_admin/internal/repository"
	"github.com/SundayYogurt/visa_admin/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminHandler struct {
	svc  services.ReviewService
	auth helper.Auth
}

func NewAdminHandler(svc services.ReviewService, auth helper.Auth) *AdminHandler {
	return &AdminHandler{svc: svc, auth: auth}
}

func (h *AdminHandler) SetupRoutes(app *fiber.App) {
	admin := app.Group("/api/admin")

	admin.Post("/login", h.Login)

	auth := middleware.AuthMiddleware(h.auth)

	// Applications
	admin.Get("/applications", auth, h.ListApplications)
	admin.Get("/applications/:id", auth, h.GetApplication)
	admin.Put("/applications/:id/approve", auth, h.Approve)
	admin.Put("/applications/:id/reject", auth, h.Reject)
	admin.Get("/applications/:id/download-pdf", auth, h.DownloadPDF)
	admin.Get("/applications/:id/preview-pdf", auth, h.PreviewPDF)

	// Documents
	admin.Put("/documents/:docId/validate", auth, h.ValidateDocument)
	admin.Get("/documents/:docId/preview", auth, h.PreviewDocument)

	// Feedback
	admin.Get("/feedbacks", auth, h.ListFeedbacks)
	admin.Get("/feedbacks/export", auth, h.ExportFeedbacks)
	admin.Delete("/feedbacks/:id", auth, h.DeleteFeedback)
}

func (h *AdminHandler) Login(ctx *fiber.Ctx) error {
	var body dto.AdminLogin
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}
	if err := helper.ValidateStruct(body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, helper.FormatValidationErrors(err))
	}

	res, err := h.svc.Login(body)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "Invalid email or password")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, res)
}

func (h *AdminHandler) ListApplications(ctx *fiber.Ctx) error {
	status, err := domain.ParseStatusFilter(ctx.Query("status"))
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid status filter")
	}

	apps, err := h.svc.ListApplications(dto.ApplicationFilter{
		Search: ctx.Query("search"),
		Status: status,
	})
	if err != nil {
		return h.fail(ctx, err, "Failed to load applications")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ListApplicationsResponse{Applications: apps})
}

func (h *AdminHandler) GetApplication(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid application id")
	}

	app, err := h.svc.GetApplication(id)
	if err != nil {
		return h.fail(ctx, err, "Failed to load application")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.ApplicationResponse{Application: app})
}

func (h *AdminHandler) Approve(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid application id")
	}

	if err := h.svc.Approve(id, h.actor(ctx)); err != nil {
		return h.fail(ctx, err, "Failed to approve application")
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Application approved")
}

func (h *AdminHandler) Reject(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid application id")
	}

	var body dto.RejectApplicationRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&body); err != nil {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
		}
	}

	if err := h.svc.Reject(id, body.RejectionReason, h.actor(ctx)); err != nil {
		return h.fail(ctx, err, "Failed to reject application")
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Application rejected")
}

func (h *AdminHandler) ValidateDocument(ctx *fiber.Ctx) error {
	docID, err := paramID(ctx, "docId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid document id")
	}

	var body dto.ValidateDocumentRequest
	if err := ctx.BodyParser(&body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}
	if err := helper.ValidateStruct(body); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, helper.FormatValidationErrors(err))
	}

	if err := h.svc.ValidateDocument(docID, body.Status, h.actor(ctx)); err != nil {
		return h.fail(ctx, err, "Failed to update document status")
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, fmt.Sprintf("Document marked as %s", body.Status))
}

func (h *AdminHandler) PreviewDocument(ctx *fiber.Ctx) error {
	docID, err := paramID(ctx, "docId")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid document id")
	}

	payload, err := h.svc.DocumentContent(docID)
	if err != nil {
		return h.fail(ctx, err, "Failed to load document")
	}
	return sendBinary(ctx, payload, "inline", "")
}

func (h *AdminHandler) PreviewPDF(ctx *fiber.Ctx) error {
	return h.summaryPDF(ctx, "inline", "Failed to preview PDF")
}

func (h *AdminHandler) DownloadPDF(ctx *fiber.Ctx) error {
	return h.summaryPDF(ctx, "attachment", "Failed to download PDF")
}

func (h *AdminHandler) summaryPDF(ctx *fiber.Ctx, disposition, failure string) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid application id")
	}

	payload, err := h.svc.SummaryPDF(id)
	if err != nil {
		return h.fail(ctx, err, failure)
	}
	return sendBinary(ctx, payload, disposition, services.PDFFilename(id))
}

func feedbackFilter(ctx *fiber.Ctx) (dto.FeedbackFilter, error) {
	filter := dto.FeedbackFilter{
		Rating:     ctx.QueryInt("rating"),
		CountryID:  uint(ctx.QueryInt("country_id")),
		VisaTypeID: uint(ctx.QueryInt("visa_type_id")),
	}
	return filter, helper.ValidateStruct(filter)
}

func (h *AdminHandler) ListFeedbacks(ctx *fiber.Ctx) error {
	filter, err := feedbackFilter(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, helper.FormatValidationErrors(err))
	}

	page, err := h.svc.ListFeedbacks(filter, ctx.QueryInt("page", 1))
	if err != nil {
		return h.fail(ctx, err, "Failed to load feedbacks")
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, page)
}

func (h *AdminHandler) DeleteFeedback(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Invalid feedback id")
	}

	if err := h.svc.DeleteFeedback(id, h.actor(ctx)); err != nil {
		return h.fail(ctx, err, "Failed to delete feedback")
	}
	return utils.ResponseMessage(ctx, fiber.StatusOK, "Feedback deleted")
}

func (h *AdminHandler) ExportFeedbacks(ctx *fiber.Ctx) error {
	filter, err := feedbackFilter(ctx)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, helper.FormatValidationErrors(err))
	}

	data, err := h.svc.ExportFeedbacksCSV(filter)
	if err != nil {
		return h.fail(ctx, err, "Failed to export feedbacks")
	}
	return sendBinary(ctx, dto.BinaryPayload{Data: data, ContentType: services.ContentTypeCSV + "; charset=utf-8"},
		"attachment", services.FeedbackFilename(time.Now()))
}

func (h *AdminHandler) actor(ctx *fiber.Ctx) string {
	admin, err := h.auth.GetCurrentAdmin(ctx)
	if err != nil {
		return ""
	}
	return admin.Email
}

// fail maps service errors onto status codes with a {message} body.
func (h *AdminHandler) fail(ctx *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.ResponseError(ctx, fiber.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrNotUnderReview):
		return utils.ResponseError(ctx, fiber.StatusConflict, "Application is not under review")
	case errors.Is(err, repository.ErrNoSummaryPDF):
		return utils.ResponseError(ctx, fiber.StatusNotFound, "PDF has not been generated for this application")
	case errors.Is(err, services.ErrInvalidValidation):
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	default:
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, fallback)
	}
}

func paramID(ctx *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(v), nil
}

func sendBinary(ctx *fiber.Ctx, payload dto.BinaryPayload, disposition, filename string) error {
	ctx.Set(fiber.HeaderContentType, payload.ContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-store")
	if filename != "" {
		ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, filename))
	} else {
		ctx.Set(fiber.HeaderContentDisposition, disposition)
	}
	return ctx.Status(fiber.StatusOK).Send(payload.Data)
}
