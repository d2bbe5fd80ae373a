// Package validation provides input validation helpers for the Carbon Risk Tracker API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum JSON request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for free-form string fields
const MaxStringLength = 10000

// MaxBatchIDs caps the number of ids accepted in a single risk evaluation.
const MaxBatchIDs = 100

var (
	// idRegex accepts prefixed random ids (fp_..., rg_...) and legacy UUIDs
	idRegex = regexp.MustCompile(`^[a-z]{2,4}_[a-f0-9]{24}$|^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	// emailRegex is a light sanity check; real validation is the verification mail we don't send
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SummaryPeriods maps accepted footprint summary windows to their length
// in days.
var SummaryPeriods = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidID checks whether a string looks like a record id this API issues.
func IsValidID(id string) bool {
	return idRegex.MatchString(id)
}

// IsValidEmail checks basic email shape.
func IsValidEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

// IsValidPeriod checks a footprint summary period token.
func IsValidPeriod(period string) bool {
	_, ok := SummaryPeriods[period]
	return ok
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// SanitizeIDs trims, drops empties and duplicates, and caps the batch size.
func SanitizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == MaxBatchIDs {
			break
		}
	}
	return out
}
