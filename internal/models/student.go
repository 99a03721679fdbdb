package models

import "encoding/json"

// StudentStatus enumerates enrolment states.
type StudentStatus string

const (
	StudentActive   StudentStatus = "Active"
	StudentInactive StudentStatus = "Inactive"
)

// Student represents a child enrolled at the school.
type Student struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Class     string        `json:"class"`
	Parent    string        `json:"parent"`
	Phone     string        `json:"phone"`
	Status    StudentStatus `json:"status"`
	CreatedAt string        `json:"createdAt,omitempty"`
}

// StudentFilter narrows the student list.
type StudentFilter struct {
	Search string
	Class  string
	Status StudentStatus
}

// UnmarshalJSON decodes a stored student, coercing non-string values in text
// fields instead of rejecting the record.
func (s *Student) UnmarshalJSON(raw []byte) error {
	var doc struct {
		ID        Text `json:"id"`
		Name      Text `json:"name"`
		Class     Text `json:"class"`
		Parent    Text `json:"parent"`
		Phone     Text `json:"phone"`
		Status    Text `json:"status"`
		CreatedAt Text `json:"createdAt"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	*s = Student{
		ID:        doc.ID.String(),
		Name:      doc.Name.String(),
		Class:     doc.Class.String(),
		Parent:    doc.Parent.String(),
		Phone:     doc.Phone.String(),
		Status:    StudentStatus(doc.Status),
		CreatedAt: doc.CreatedAt.String(),
	}
	return nil
}
