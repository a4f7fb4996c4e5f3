package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

// decodeBody parses a JSON body into out and runs tag validation when a
// validator is given.
func decodeBody(c *fiber.Ctx, validator *dto.Validator, out any) error {
	if len(c.Body()) == 0 {
		return apperrors.NewValidationError("request body is required", nil)
	}
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return apperrors.NewValidationError("invalid JSON body", nil)
	}
	if validator != nil {
		return validator.Validate(out)
	}
	return nil
}

// decodePatch parses a JSON object body keeping each value raw, so that
// absent fields and explicit nulls stay distinguishable.
func decodePatch(c *fiber.Ctx) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return nil, apperrors.NewValidationError("request body must be a JSON object", nil)
	}
	return raw, nil
}

func pageFromQuery(c *fiber.Ctx) (service.PageRequest, error) {
	page := service.PageRequest{Cursor: strings.TrimSpace(c.Query("cursor"))}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return page, apperrors.NewValidationError("limit must be a positive integer", map[string]any{"field": "limit"})
		}
		page.Limit = limit
	}
	return page, nil
}

func listResponse(c *fiber.Ctx, items any, count int, nextCursor string) error {
	body := fiber.Map{"data": items, "count": count}
	if nextCursor != "" {
		body["next_cursor"] = nextCursor
	}
	return c.JSON(body)
}

func queryBool(c *fiber.Ctx, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(key+" must be a boolean", map[string]any{"field": key})
	}
	return value, nil
}
