package invoices

import (
	"fmt"

	"github.com/google/uuid"
)

// FormatInvoiceNumber renders the business-sequential invoice number. The
// sequence is the business's sent counter plus one, read under a row lock in
// the same transaction that increments it; once assigned the number never
// changes.
func FormatInvoiceNumber(businessID uuid.UUID, sequence int64) string {
	return fmt.Sprintf("INV-%s-%05d", businessID, sequence)
}
