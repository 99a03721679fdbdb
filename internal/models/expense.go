package models

import "encoding/json"

// ExpenseCategorySalary marks expenses recorded from staff salary payments.
const ExpenseCategorySalary = "Salary"

// Expense is money spent by the school. StaffID is set only for salary payments.
type Expense struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Amount   Number `json:"amount"`
	Date     string `json:"date,omitempty"`
	StaffID  string `json:"staffId,omitempty"`
}

// UnmarshalJSON decodes a stored expense leniently.
func (e *Expense) UnmarshalJSON(raw []byte) error {
	var doc struct {
		ID       Text   `json:"id"`
		Title    Text   `json:"title"`
		Category Text   `json:"category"`
		Amount   Number `json:"amount"`
		Date     Text   `json:"date"`
		StaffID  Text   `json:"staffId"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	*e = Expense{
		ID:       doc.ID.String(),
		Title:    doc.Title.String(),
		Category: doc.Category.String(),
		Amount:   doc.Amount,
		Date:     doc.Date.String(),
		StaffID:  doc.StaffID.String(),
	}
	return nil
}
