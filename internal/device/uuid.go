package device

import (
	"fmt"

	"github.com/srg/hrmwatch/internal/bledb"
)

// NormalizeUUID is re-exported from bledb for convenience.
// It converts a UUID string to the internal BLE library format (lowercase, no dashes),
// reducing SIG base UUIDs to their 16-bit short form.
func NormalizeUUID(uuid string) string {
	return bledb.NormalizeUUID(uuid)
}

// NormalizeUUIDs is re-exported from bledb for convenience.
func NormalizeUUIDs(uuids []string) []string {
	return bledb.NormalizeUUIDs(uuids)
}

// ContainsUUID reports whether uuids contains want, comparing normalized forms.
func ContainsUUID(uuids []string, want string) bool {
	w := NormalizeUUID(want)
	for _, u := range uuids {
		if NormalizeUUID(u) == w {
			return true
		}
	}
	return false
}

// ValidateUUID validates that UUID strings are non-empty and well-formed.
// Returns normalized UUID strings or an error.
func ValidateUUID(uuids ...string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, fmt.Errorf("at least one UUID is required")
	}

	result := make([]string, 0, len(uuids))
	for i, uuid := range uuids {
		normalized := NormalizeUUID(uuid)
		if normalized == "" {
			return nil, fmt.Errorf("UUID at index %d cannot be empty", i)
		}
		if len(normalized) != 4 && len(normalized) != 8 && len(normalized) != 32 {
			return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
		}
		for _, r := range normalized {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return nil, fmt.Errorf("invalid UUID format at index %d: %s", i, uuid)
			}
		}
		result = append(result, normalized)
	}
	return result, nil
}
