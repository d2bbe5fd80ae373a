package validation

import (
	"strings"
	"testing"
)

func TestIsValidID(t *testing.T) {
	valid := []string{
		"fp_0123456789abcdef01234567",
		"rg_abcdefabcdefabcdefabcdef",
		"usr_000000000000000000000000",
		"a94a8fe5-ccb1-9ba6-1c4c-0873d391e987",
	}
	for _, id := range valid {
		if !IsValidID(id) {
			t.Errorf("Expected %q to be valid", id)
		}
	}

	invalid := []string{
		"",
		"fp_short",
		"fp_0123456789ABCDEF01234567", // uppercase hex
		"footprint_0123456789abcdef01234567",
		"'; DROP TABLE footprints; --",
		"fp_0123456789abcdef01234567 ",
	}
	for _, id := range invalid {
		if IsValidID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("user@example.com") {
		t.Error("Expected valid email")
	}
	for _, e := range []string{"", "user", "user@", "@example.com", "a b@example.com"} {
		if IsValidEmail(e) {
			t.Errorf("Expected %q to be invalid", e)
		}
	}
}

func TestIsValidPeriod(t *testing.T) {
	for _, p := range []string{"7d", "30d", "90d", "1y"} {
		if !IsValidPeriod(p) {
			t.Errorf("Expected period %q to be valid", p)
		}
	}
	for _, p := range []string{"", "1d", "365d", "forever"} {
		if IsValidPeriod(p) {
			t.Errorf("Expected period %q to be invalid", p)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 100); got != "hello" {
		t.Errorf("Expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abc\x00def", 100); got != "abcdef" {
		t.Errorf("Expected null bytes removed, got %q", got)
	}
	long := strings.Repeat("x", 50)
	if got := SanitizeString(long, 10); len(got) != 10 {
		t.Errorf("Expected truncation to 10, got %d", len(got))
	}
}

func TestSanitizeIDs(t *testing.T) {
	ids := SanitizeIDs([]string{" fp_a ", "fp_a", "", "fp_b"})
	if len(ids) != 2 || ids[0] != "fp_a" || ids[1] != "fp_b" {
		t.Errorf("Unexpected sanitized ids: %v", ids)
	}

	many := make([]string, MaxBatchIDs+50)
	for i := range many {
		many[i] = "id_" + strings.Repeat("a", 3) + string(rune('a'+i%26)) + strings.Repeat("b", i/26+1)
	}
	if got := SanitizeIDs(many); len(got) > MaxBatchIDs {
		t.Errorf("Expected batch capped at %d, got %d", MaxBatchIDs, len(got))
	}
}
