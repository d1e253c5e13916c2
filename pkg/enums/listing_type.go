package enums

import "fmt"

// ListingType classifies how a book is offered.
type ListingType string

const (
	ListingTypeSale     ListingType = "sale"
	ListingTypeExchange ListingType = "exchange"
	ListingTypeDonate   ListingType = "donate"
)

var validListingTypes = []ListingType{
	ListingTypeSale,
	ListingTypeExchange,
	ListingTypeDonate,
}

// String implements fmt.Stringer.
func (t ListingType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ListingType.
func (t ListingType) IsValid() bool {
	for _, candidate := range validListingTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseListingType converts raw input into a ListingType.
func ParseListingType(value string) (ListingType, error) {
	for _, candidate := range validListingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing type %q", value)
}
