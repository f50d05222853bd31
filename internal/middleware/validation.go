package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxDrugIDLen    = 64  // drugs.drug_id VARCHAR(64)
	MaxQueryLen     = 100 // longest catalog search term
	MaxUserAgentLen = 256 // client signature, truncated before hashing
	MinQueryLen     = 2
)

// drugIDRe matches catalog drug IDs: lowercase alphanumeric, dash, underscore.
var drugIDRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateDrugID checks that a drug ID is well-formed and within DB limits.
func ValidateDrugID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "drugId is required"
	}
	if len(id) > MaxDrugIDLen {
		return "", "drugId must be at most 64 characters"
	}
	if !drugIDRe.MatchString(id) {
		return "", "drugId contains invalid characters"
	}
	return id, ""
}

// ValidateQuery trims a search query and enforces length limits. A query
// shorter than two characters is rejected before it reaches the catalog.
func ValidateQuery(q string) (string, string) {
	q = strings.TrimSpace(q)
	if len(q) < MinQueryLen {
		return "", "q must be at least 2 characters"
	}
	if len(q) > MaxQueryLen {
		return "", "q must be at most 100 characters"
	}
	return q, ""
}

// ValidateUserAgent trims and truncates the client signature. An empty
// signature is allowed; the identity resolver treats it as empty input.
func ValidateUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if len(ua) > MaxUserAgentLen {
		ua = ua[:MaxUserAgentLen]
	}
	return ua
}
