package enums

import "fmt"

// TicketCategoryType classifies a ticket tier within an event.
type TicketCategoryType string

const (
	TicketCategoryTypeRegular   TicketCategoryType = "regular"
	TicketCategoryTypeVIP       TicketCategoryType = "vip"
	TicketCategoryTypeGroup     TicketCategoryType = "group"
	TicketCategoryTypeEarlyBird TicketCategoryType = "early_bird"
)

var validTicketCategoryTypes = []TicketCategoryType{
	TicketCategoryTypeRegular,
	TicketCategoryTypeVIP,
	TicketCategoryTypeGroup,
	TicketCategoryTypeEarlyBird,
}

// String implements fmt.Stringer.
func (t TicketCategoryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketCategoryType.
func (t TicketCategoryType) IsValid() bool {
	for _, candidate := range validTicketCategoryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTicketCategoryType converts raw input into a TicketCategoryType.
func ParseTicketCategoryType(value string) (TicketCategoryType, error) {
	for _, candidate := range validTicketCategoryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket category type %q", value)
}
