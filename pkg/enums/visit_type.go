package enums

import "fmt"

// VisitType classifies a tracked visitor interaction.
type VisitType string

const (
	VisitTypePageView       VisitType = "page_view"
	VisitTypeEventView      VisitType = "event_view"
	VisitTypeTicketPurchase VisitType = "ticket_purchase"
	VisitTypeSignup         VisitType = "signup"
)

var validVisitTypes = []VisitType{
	VisitTypePageView,
	VisitTypeEventView,
	VisitTypeTicketPurchase,
	VisitTypeSignup,
}

// String implements fmt.Stringer.
func (v VisitType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VisitType.
func (v VisitType) IsValid() bool {
	for _, candidate := range validVisitTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVisitType converts raw input into a VisitType.
func ParseVisitType(value string) (VisitType, error) {
	for _, candidate := range validVisitTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visit type %q", value)
}
