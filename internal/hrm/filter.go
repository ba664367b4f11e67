package hrm

import (
	"strings"

	"github.com/srg/hrmwatch/internal/device"
)

// HeartRateServiceShortUUID is the advertised Heart Rate Service in normalized short form.
const HeartRateServiceShortUUID = "180d"

// ScanFilter selects heart-rate peripherals from advertisements. An
// advertisement matches if it lists ServiceUUID or its local name contains
// any of NamePatterns, compared case-insensitively.
type ScanFilter struct {
	ServiceUUID  string
	NamePatterns []string
}

// DefaultScanFilter matches the Heart Rate Service or the usual Garmin strap names.
func DefaultScanFilter() ScanFilter {
	return ScanFilter{
		ServiceUUID:  HeartRateServiceShortUUID,
		NamePatterns: []string{"HRM", "GARMIN", "DUAL"},
	}
}

// Match reports whether adv belongs to a heart-rate peripheral.
func (f ScanFilter) Match(adv device.Advertisement) bool {
	if adv == nil {
		return false
	}
	if f.ServiceUUID != "" && device.ContainsUUID(adv.Services(), f.ServiceUUID) {
		return true
	}

	name := strings.ToUpper(adv.LocalName())
	if name == "" {
		return false
	}
	for _, p := range f.NamePatterns {
		if p != "" && strings.Contains(name, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}
