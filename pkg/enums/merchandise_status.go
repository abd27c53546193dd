package enums

import "fmt"

// MerchandiseStatus tracks the listing state of a merchandise item.
type MerchandiseStatus string

const (
	MerchandiseStatusDraft    MerchandiseStatus = "draft"
	MerchandiseStatusActive   MerchandiseStatus = "active"
	MerchandiseStatusSoldOut  MerchandiseStatus = "sold_out"
	MerchandiseStatusInactive MerchandiseStatus = "inactive"
)

var validMerchandiseStatuses = []MerchandiseStatus{
	MerchandiseStatusDraft,
	MerchandiseStatusActive,
	MerchandiseStatusSoldOut,
	MerchandiseStatusInactive,
}

// String implements fmt.Stringer.
func (s MerchandiseStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MerchandiseStatus.
func (s MerchandiseStatus) IsValid() bool {
	for _, candidate := range validMerchandiseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMerchandiseStatus converts raw input into a MerchandiseStatus.
func ParseMerchandiseStatus(value string) (MerchandiseStatus, error) {
	for _, candidate := range validMerchandiseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchandise status %q", value)
}
