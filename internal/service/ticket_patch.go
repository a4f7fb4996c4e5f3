package service

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/access"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// FieldExpectedUpdatedAt carries the optimistic concurrency token in an
// update payload. It is not a ticket field.
const FieldExpectedUpdatedAt = "expected_updated_at"

// TicketPatch is a decoded and validated ticket update. A nil pointer means
// the field was absent; Clear* flags record an explicit null.
type TicketPatch struct {
	Fields            []string
	Title             *string
	Description       *string
	Priority          *domain.TicketPriority
	Category          *string
	Tags              *[]string
	Status            *domain.TicketStatus
	AssignedTo        *string
	ClearAssignee     bool
	Resolution        *string
	ClearResolution   bool
	ExpectedUpdatedAt *time.Time
}

// ParseTicketPatch validates the shape of a raw update body. Only the
// vocabulary and value types are checked here; permissions and state rules
// are applied by the service.
func ParseTicketPatch(raw map[string]json.RawMessage) (*TicketPatch, error) {
	var unknown []string
	for name := range raw {
		if name != FieldExpectedUpdatedAt && !access.IsTicketField(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationError("unknown fields in update", map[string]any{"fields": unknown})
	}

	patch := &TicketPatch{}
	for name, value := range raw {
		if err := patch.apply(name, value); err != nil {
			return nil, err
		}
		if name != FieldExpectedUpdatedAt {
			patch.Fields = append(patch.Fields, name)
		}
	}
	if len(patch.Fields) == 0 {
		return nil, apperrors.NewValidationError("no updatable fields provided", nil)
	}
	sort.Strings(patch.Fields)
	return patch, nil
}

func (p *TicketPatch) apply(name string, value json.RawMessage) error {
	isNull := strings.TrimSpace(string(value)) == "null"

	switch name {
	case access.FieldTitle, access.FieldDescription, access.FieldCategory:
		text, err := requiredString(name, value)
		if err != nil {
			return err
		}
		switch name {
		case access.FieldTitle:
			p.Title = &text
		case access.FieldDescription:
			p.Description = &text
		default:
			p.Category = &text
		}
	case access.FieldPriority:
		text, err := requiredString(name, value)
		if err != nil {
			return err
		}
		priority, ok := domain.ParseTicketPriority(text)
		if !ok {
			return invalidEnum(name, text, domain.TicketPriorities)
		}
		p.Priority = &priority
	case access.FieldStatus:
		text, err := requiredString(name, value)
		if err != nil {
			return err
		}
		status, ok := domain.ParseTicketStatus(text)
		if !ok {
			return invalidEnum(name, text, domain.TicketStatuses)
		}
		if status == domain.TicketStatusDeleted {
			return apperrors.NewValidationError("tickets are deleted through the delete operation", map[string]any{"field": name})
		}
		p.Status = &status
	case access.FieldTags:
		var tags []string
		if isNull {
			tags = []string{}
		} else if err := json.Unmarshal(value, &tags); err != nil {
			return fieldTypeError(name, "array of strings")
		}
		cleaned := normalizeTags(tags)
		p.Tags = &cleaned
	case access.FieldAssignedTo:
		if isNull {
			p.ClearAssignee = true
			return nil
		}
		text, err := requiredString(name, value)
		if err != nil {
			return err
		}
		p.AssignedTo = &text
	case access.FieldResolution:
		if isNull {
			p.ClearResolution = true
			return nil
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return fieldTypeError(name, "string")
		}
		text = strings.TrimSpace(text)
		p.Resolution = &text
	case FieldExpectedUpdatedAt:
		text, err := requiredString(name, value)
		if err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return apperrors.NewValidationError("expected_updated_at must be an RFC 3339 timestamp", map[string]any{"field": name})
		}
		parsed = parsed.UTC()
		p.ExpectedUpdatedAt = &parsed
	}
	return nil
}

func requiredString(name string, value json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", fieldTypeError(name, "string")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.NewValidationError(name+" must not be empty", map[string]any{"field": name})
	}
	return text, nil
}

func fieldTypeError(name, want string) error {
	return apperrors.NewValidationError(name+" must be a "+want, map[string]any{"field": name})
}

func invalidEnum[T ~string](name, got string, allowed []T) error {
	return apperrors.NewValidationError("invalid "+name, map[string]any{"field": name, "value": got, "allowed": allowed})
}

func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
