package loyalty

import (
	"strings"

	"github.com/google/uuid"
)

const referralCodeLength = 8

// NewReferralCode is the code a client hands to the people they refer.
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLength])
}

// NormalizeReferralCode trims and upper-cases a code typed by a client.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
