package invoices

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	pkgerrors "github.com/smeazy/invoicing-backend/pkg/errors"
)

// buildLineItems validates the specs and materializes line items with exact
// decimal transaction values. Returns the items plus their sum, which becomes
// the invoice's authoritative total regardless of client input.
func buildLineItems(specs []LineItemSpec) ([]models.LineItem, decimal.Decimal, error) {
	items := make([]models.LineItem, 0, len(specs))
	total := decimal.Zero

	for i, spec := range specs {
		name := strings.TrimSpace(spec.ProductName)
		if name == "" {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d: product name is required", i+1))
		}
		if spec.UnitPrice.IsNegative() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d: unit price must not be negative", i+1))
		}
		if spec.Quantity <= 0 {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d: quantity must be positive", i+1))
		}

		itemType := spec.Type
		if itemType == "" {
			itemType = enums.LineItemTypeProduct
		}
		if !itemType.IsValid() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line item %d: invalid type %q", i+1, spec.Type))
		}

		value := spec.UnitPrice.Mul(decimal.NewFromInt(int64(spec.Quantity)))
		items = append(items, models.LineItem{
			ProductName:      name,
			UnitPrice:        spec.UnitPrice,
			Quantity:         spec.Quantity,
			Type:             itemType,
			Description:      spec.Description,
			TransactionValue: value,
			Position:         i,
		})
		total = total.Add(value)
	}

	return items, total, nil
}
