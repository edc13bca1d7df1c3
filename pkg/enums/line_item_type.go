package enums

import "fmt"

// LineItemType distinguishes priced goods from billed services.
type LineItemType string

const (
	LineItemTypeProduct LineItemType = "product"
	LineItemTypeService LineItemType = "service"
)

var validLineItemTypes = []LineItemType{
	LineItemTypeProduct,
	LineItemTypeService,
}

// String implements fmt.Stringer.
func (t LineItemType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LineItemType.
func (t LineItemType) IsValid() bool {
	for _, candidate := range validLineItemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLineItemType converts raw input into a LineItemType.
func ParseLineItemType(value string) (LineItemType, error) {
	for _, candidate := range validLineItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item type %q", value)
}
