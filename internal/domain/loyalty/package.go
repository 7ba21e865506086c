package loyalty

import (
	"strings"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const legacyPackageMarker = "forfait"

// IsPackageSelection is the booking-time rule: any service booked with the
// package marker makes the appointment a package.
func IsPackageSelection(markers []bool) bool {
	for _, m := range markers {
		if m {
			return true
		}
	}
	return false
}

// ClassifyLegacy decides is_package for rows written before the flag existed.
// Structured package markers win; the service-name heuristic is the fallback.
func ClassifyLegacy(ap *models.Appointment) bool {
	names := make([]string, 0, len(ap.Services))
	for _, s := range ap.Services {
		if s.IsPackage {
			return true
		}
		names = append(names, s.Service.Name)
	}
	return looksLikePackage(names)
}

func looksLikePackage(serviceNames []string) bool {
	for _, n := range serviceNames {
		if strings.Contains(strings.ToLower(n), legacyPackageMarker) {
			return true
		}
	}
	return false
}
