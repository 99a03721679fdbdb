package dto

import "github.com/noah-isme/playschool-admin/internal/models"

// InvoiceView is an invoice with its derived balance.
type InvoiceView struct {
	models.Invoice
	Balance float64 `json:"balance"`
}

// NewInvoiceViews decorates invoices with balances.
func NewInvoiceViews(invoices []models.Invoice) []InvoiceView {
	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, InvoiceView{Invoice: inv, Balance: inv.Balance()})
	}
	return views
}

// NextInvoiceIDResponse previews the display identifier the next invoice for a class would get.
type NextInvoiceIDResponse struct {
	Class     string `json:"class"`
	DisplayID string `json:"displayId"`
}

// MutationAck reports the store identifier touched by a write.
type MutationAck struct {
	ID        string `json:"id"`
	DisplayID string `json:"displayId,omitempty"`
}
