package models

import "encoding/json"

// StaffCategory splits staff into teaching and support roles.
type StaffCategory string

const (
	StaffTeaching StaffCategory = "Teaching"
	StaffSupport  StaffCategory = "Support Staff"
)

// StaffStatus enumerates employment states.
type StaffStatus string

const (
	StaffActive   StaffStatus = "Active"
	StaffOnLeave  StaffStatus = "On Leave"
	StaffInactive StaffStatus = "Inactive"
)

// StaffMember is an employee. Subject applies to teaching staff only and Role
// to support staff only.
type StaffMember struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Category  StaffCategory `json:"category"`
	Subject   string        `json:"subject,omitempty"`
	Role      string        `json:"role,omitempty"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Salary    Number        `json:"salary"`
	Status    StaffStatus   `json:"status"`
	CreatedAt string        `json:"createdAt,omitempty"`
}

// IsTeaching treats a missing category as teaching staff.
func (s StaffMember) IsTeaching() bool {
	return s.Category == StaffTeaching || s.Category == ""
}

// UnmarshalJSON decodes a stored staff member leniently.
func (s *StaffMember) UnmarshalJSON(raw []byte) error {
	var doc struct {
		ID        Text   `json:"id"`
		Name      Text   `json:"name"`
		Category  Text   `json:"category"`
		Subject   Text   `json:"subject"`
		Role      Text   `json:"role"`
		Email     Text   `json:"email"`
		Phone     Text   `json:"phone"`
		Salary    Number `json:"salary"`
		Status    Text   `json:"status"`
		CreatedAt Text   `json:"createdAt"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	*s = StaffMember{
		ID:        doc.ID.String(),
		Name:      doc.Name.String(),
		Category:  StaffCategory(doc.Category),
		Subject:   doc.Subject.String(),
		Role:      doc.Role.String(),
		Email:     doc.Email.String(),
		Phone:     doc.Phone.String(),
		Salary:    doc.Salary,
		Status:    StaffStatus(doc.Status),
		CreatedAt: doc.CreatedAt.String(),
	}
	return nil
}
