package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CommentsHandler serves ticket thread endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// CreateComment POST /tickets/:id/comments.
func (h *CommentsHandler) CreateComment(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := decodeBody(c, nil, &req); err != nil {
		return err
	}
	comment, err := h.service.CreateComment(c.UserContext(), actor, c.Params("id"), service.CommentCreateInput{
		Content:     req.Content,
		IsInternal:  req.IsInternal,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListComments(c.UserContext(), actor, c.Params("id"), page)
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, dto.NewCommentResponse(&result.Items[i]))
	}
	return listResponse(c, items, len(items), result.NextCursor)
}
