package notify

import (
	"fmt"
	"strings"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
)

// Formatter renders an invoice into the text-message summary sent to the
// customer. Pure formatting; no I/O.
type Formatter struct{}

// NewFormatter returns the invoice text formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Render produces the human-readable invoice summary: header, one line per
// item, total, and footer.
func (f *Formatter) Render(invoice *models.Invoice) string {
	if invoice == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 INVOICE %s\n", invoice.InvoiceNumber)
	fmt.Fprintf(&b, "From: %s\n", invoice.BusinessName)
	fmt.Fprintf(&b, "To: %s\n\n", invoice.CustomerName)

	for _, item := range invoice.LineItems {
		fmt.Fprintf(&b, "%s x %d @ %s/- = %s/-\n",
			item.ProductName, item.Quantity, item.UnitPrice.String(), item.TransactionValue.String())
	}

	fmt.Fprintf(&b, "\nTotal: %s/-\n", invoice.TotalAmount.String())
	if invoice.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", invoice.DueDate.Format("02 Jan 2006"))
	}
	b.WriteString("Thank you for your business!")
	return b.String()
}
