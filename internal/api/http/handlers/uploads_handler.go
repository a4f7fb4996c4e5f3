package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// UploadsHandler mints attachment upload URLs.
type UploadsHandler struct {
	service   *service.UploadService
	validator *dto.Validator
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploadService *service.UploadService, validator *dto.Validator) *UploadsHandler {
	return &UploadsHandler{service: uploadService, validator: validator}
}

// CreateUploadURL POST /uploads.
func (h *UploadsHandler) CreateUploadURL(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UploadURLRequest
	if err := decodeBody(c, h.validator, &req); err != nil {
		return err
	}
	grant, err := h.service.CreateUploadURL(c.UserContext(), actor, service.UploadInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUploadURLResponse(grant)})
}
