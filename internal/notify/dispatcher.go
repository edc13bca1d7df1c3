package notify

import (
	"context"
	"strings"

	"github.com/smeazy/invoicing-backend/pkg/db/models"
	"github.com/smeazy/invoicing-backend/pkg/logger"
)

// Dispatcher sends best-effort invoice notifications. A nil channel (SMS
// disabled) makes every dispatch a no-op; send failures are logged and
// swallowed so they can never affect the invoice itself.
type Dispatcher struct {
	channel     Channel
	formatter   *Formatter
	countryCode string
	logg        *logger.Logger
}

// DispatcherParams packages the dispatcher dependencies.
type DispatcherParams struct {
	Channel     Channel
	Formatter   *Formatter
	CountryCode string
	Logger      *logger.Logger
}

// NewDispatcher builds an invoice notification dispatcher.
func NewDispatcher(params DispatcherParams) *Dispatcher {
	formatter := params.Formatter
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Dispatcher{
		channel:     params.Channel,
		formatter:   formatter,
		countryCode: params.CountryCode,
		logg:        params.Logger,
	}
}

// InvoiceCreated notifies the customer about a freshly created invoice. A
// non-empty tempPassword means the customer account was just provisioned; the
// message then includes the one-time login password.
func (d *Dispatcher) InvoiceCreated(ctx context.Context, invoice *models.Invoice, tempPassword string) {
	if d == nil || d.channel == nil || invoice == nil {
		return
	}
	if invoice.CustomerPhone == nil || strings.TrimSpace(*invoice.CustomerPhone) == "" {
		return
	}

	recipient := d.normalizePhone(*invoice.CustomerPhone)
	text := d.formatter.Render(invoice)
	if tempPassword != "" {
		text += "\n\nYour account has been created.\nLogin with password: " + tempPassword
	}

	result, err := d.channel.Send(ctx, recipient, text)
	if d.logg == nil {
		return
	}
	ctx = d.logg.WithInvoiceNumber(ctx, invoice.InvoiceNumber)
	if err != nil {
		d.logg.Warn(ctx, "invoice notification failed: "+err.Error())
		return
	}
	d.logg.Info(d.logg.WithField(ctx, "delivery_status", result.Status), "invoice notification sent")
}

// normalizePhone rewrites local numbers (leading 0) to international format
// using the configured country code.
func (d *Dispatcher) normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if d.countryCode != "" && strings.HasPrefix(phone, "0") {
		return d.countryCode + phone[1:]
	}
	return phone
}
