package models

import "encoding/json"

// InvoiceStatus enumerates payment states.
type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "Paid"
	InvoicePending InvoiceStatus = "Pending"
	InvoiceOverdue InvoiceStatus = "Overdue"
)

// Invoice is a fee bill raised against a student. ID is the store identifier;
// DisplayID is the human-readable sequence code.
type Invoice struct {
	ID           string        `json:"id"`
	DisplayID    string        `json:"displayId,omitempty"`
	Student      string        `json:"student"`
	StudentID    string        `json:"studentId,omitempty"`
	StudentClass string        `json:"studentClass,omitempty"`
	Amount       Number        `json:"amount"`
	Paid         Number        `json:"paid"`
	Date         string        `json:"date,omitempty"`
	Status       InvoiceStatus `json:"status"`
	Type         string        `json:"type"`
	CreatedAt    string        `json:"createdAt,omitempty"`
}

// Balance is the unpaid remainder. It may be negative when overpaid.
func (i Invoice) Balance() float64 {
	return i.Amount.Float() - i.Paid.Float()
}

// DeriveInvoiceStatus marks an invoice paid once the full, non-zero amount is covered.
func DeriveInvoiceStatus(amount, paid float64) InvoiceStatus {
	if amount > 0 && paid >= amount {
		return InvoicePaid
	}
	return InvoicePending
}

// UnmarshalJSON decodes a stored invoice. Text fields written as numbers,
// such as a numeric studentClass, keep their literal form.
func (i *Invoice) UnmarshalJSON(raw []byte) error {
	var doc struct {
		ID           Text   `json:"id"`
		DisplayID    Text   `json:"displayId"`
		Student      Text   `json:"student"`
		StudentID    Text   `json:"studentId"`
		StudentClass Text   `json:"studentClass"`
		Amount       Number `json:"amount"`
		Paid         Number `json:"paid"`
		Date         Text   `json:"date"`
		Status       Text   `json:"status"`
		Type         Text   `json:"type"`
		CreatedAt    Text   `json:"createdAt"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	*i = Invoice{
		ID:           doc.ID.String(),
		DisplayID:    doc.DisplayID.String(),
		Student:      doc.Student.String(),
		StudentID:    doc.StudentID.String(),
		StudentClass: doc.StudentClass.String(),
		Amount:       doc.Amount,
		Paid:         doc.Paid,
		Date:         doc.Date.String(),
		Status:       InvoiceStatus(doc.Status),
		Type:         doc.Type.String(),
		CreatedAt:    doc.CreatedAt.String(),
	}
	return nil
}
