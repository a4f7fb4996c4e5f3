package auth

import (
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Claim names understood by ParseClaims, in lookup order where a fallback
// exists.
const (
	ClaimSubject    = "sub"
	ClaimEmail      = "email"
	ClaimUsername   = "cognito:username"
	ClaimRole       = "custom:role"
	ClaimRoleShort  = "role"
	ClaimOrgID      = "custom:orgId"
	ClaimOrgIDShort = "org_id"
	ClaimGivenName  = "given_name"
	ClaimFamilyName = "family_name"
)

// UnknownEmail is used when the assertion carries no email of any kind.
const UnknownEmail = "unknown"

// ParseClaims turns an already verified claim set into an Actor. It never
// fails: a missing subject yields the anonymous actor and an unrecognized
// role yields a customer.
func ParseClaims(claims map[string]string) domain.Actor {
	subject := strings.TrimSpace(claims[ClaimSubject])
	if subject == "" {
		return domain.Actor{}
	}

	email := firstClaim(claims, ClaimEmail, ClaimUsername)
	if email == "" {
		email = UnknownEmail
	}

	return domain.NewActor(
		subject,
		email,
		firstClaim(claims, ClaimRole, ClaimRoleShort),
		firstClaim(claims, ClaimOrgID, ClaimOrgIDShort),
		claims[ClaimGivenName],
		claims[ClaimFamilyName],
	)
}

func firstClaim(claims map[string]string, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(claims[name]); value != "" {
			return value
		}
	}
	return ""
}
