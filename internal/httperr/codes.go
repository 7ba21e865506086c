package httperr

const (
	CodeNotFound            = "not_found"
	CodeAppointmentNotFound = "appointment_not_found"
	CodeClientNotFound      = "client_not_found"
	CodeDiscountNotFound    = "discount_not_found"
	CodeServiceNotFound     = "service_not_found"

	CodeUnknownService      = "unknown_service"
	CodeEmptySelection      = "empty_selection"
	CodeNotAPackage         = "not_a_package"
	CodeOutsideWorkingHours = "outside_working_hours"
	CodeSlotConflict        = "slot_conflict"
	CodeTooSoon             = "too_soon"

	CodeInvalidState     = "invalid_state"
	CodeAlreadyCompleted = "already_completed"

	CodeInvalidDiscountTransition = "invalid_discount_transition"
	CodeDiscountNotAvailable      = "discount_not_available"
	CodeInvalidAmount             = "invalid_amount"
	CodeReconciliationFailed      = "reconciliation_failed"

	CodeInvalidReferralCode = "invalid_referral_code"
	CodeClientAlreadyExists = "client_already_exists"
)
