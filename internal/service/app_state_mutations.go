package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

const dateLayout = "2006-01-02"

// CreateStudentRequest captures a new enrolment.
type CreateStudentRequest struct {
	Name   string               `json:"name" validate:"required"`
	Class  string               `json:"class" validate:"required"`
	Parent string               `json:"parent"`
	Phone  string               `json:"phone"`
	Status models.StudentStatus `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

// UpdateStudentRequest is a partial student update; nil fields are left untouched.
type UpdateStudentRequest struct {
	Name   *string               `json:"name,omitempty" validate:"omitempty,min=1"`
	Class  *string               `json:"class,omitempty" validate:"omitempty,min=1"`
	Parent *string               `json:"parent,omitempty"`
	Phone  *string               `json:"phone,omitempty"`
	Status *models.StudentStatus `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
}

// CreateStaffRequest captures a new staff member.
type CreateStaffRequest struct {
	Name     string               `json:"name" validate:"required"`
	Category models.StaffCategory `json:"category" validate:"omitempty,oneof=Teaching 'Support Staff'"`
	Subject  string               `json:"subject,omitempty"`
	Role     string               `json:"role,omitempty"`
	Email    string               `json:"email" validate:"omitempty,email"`
	Phone    string               `json:"phone"`
	Salary   models.Number        `json:"salary" validate:"gte=0"`
	Status   models.StaffStatus   `json:"status" validate:"omitempty,oneof=Active 'On Leave' Inactive"`
}

// UpdateStaffRequest is a partial staff update.
type UpdateStaffRequest struct {
	Name     *string               `json:"name,omitempty" validate:"omitempty,min=1"`
	Category *models.StaffCategory `json:"category,omitempty" validate:"omitempty,oneof=Teaching 'Support Staff'"`
	Subject  *string               `json:"subject,omitempty"`
	Role     *string               `json:"role,omitempty"`
	Email    *string               `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string               `json:"phone,omitempty"`
	Salary   *models.Number        `json:"salary,omitempty" validate:"omitempty,gte=0"`
	Status   *models.StaffStatus   `json:"status,omitempty" validate:"omitempty,oneof=Active 'On Leave' Inactive"`
}

// CreateInvoiceRequest captures a new invoice. The display identifier is
// always allocated by the server.
type CreateInvoiceRequest struct {
	Student      string               `json:"student" validate:"required"`
	StudentID    string               `json:"studentId,omitempty"`
	StudentClass string               `json:"studentClass,omitempty"`
	Amount       models.Number        `json:"amount" validate:"gte=0"`
	Paid         models.Number        `json:"paid" validate:"gte=0"`
	Date         string               `json:"date,omitempty"`
	Status       models.InvoiceStatus `json:"status,omitempty" validate:"omitempty,oneof=Paid Pending Overdue"`
	Type         string               `json:"type"`
}

// UpdateInvoiceRequest is a partial invoice update.
type UpdateInvoiceRequest struct {
	DisplayID    *string               `json:"displayId,omitempty"`
	Student      *string               `json:"student,omitempty" validate:"omitempty,min=1"`
	StudentID    *string               `json:"studentId,omitempty"`
	StudentClass *string               `json:"studentClass,omitempty"`
	Amount       *models.Number        `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Paid         *models.Number        `json:"paid,omitempty" validate:"omitempty,gte=0"`
	Date         *string               `json:"date,omitempty"`
	Status       *models.InvoiceStatus `json:"status,omitempty" validate:"omitempty,oneof=Paid Pending Overdue"`
	Type         *string               `json:"type,omitempty"`
}

// CreateExpenseRequest captures a new expense.
type CreateExpenseRequest struct {
	Title    string        `json:"title" validate:"required"`
	Category string        `json:"category"`
	Amount   models.Number `json:"amount" validate:"gte=0"`
	Date     string        `json:"date,omitempty"`
	StaffID  string        `json:"staffId,omitempty"`
}

// UpdateExpenseRequest is a partial expense update.
type UpdateExpenseRequest struct {
	Title    *string        `json:"title,omitempty" validate:"omitempty,min=1"`
	Category *string        `json:"category,omitempty"`
	Amount   *models.Number `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Date     *string        `json:"date,omitempty"`
}

// SalaryPaymentRequest records a salary payout. Amount defaults to the
// staff member's salary and Date to today.
type SalaryPaymentRequest struct {
	Amount *models.Number `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Date   string         `json:"date,omitempty"`
}

// AddStudent creates a student record stamped with createdAt.
func (s *AppState) AddStudent(ctx context.Context, req CreateStudentRequest) (dto.MutationAck, error) {
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}
	if req.Status == "" {
		req.Status = models.StudentActive
	}
	fields, err := toFields(req)
	if err != nil {
		return dto.MutationAck{}, err
	}
	fields["createdAt"] = s.timestamp()
	id, err := s.create(ctx, models.CollectionStudents, fields, "failed to add student")
	return dto.MutationAck{ID: id}, err
}

// UpdateStudent patches the given fields of a student.
func (s *AppState) UpdateStudent(ctx context.Context, id string, req UpdateStudentRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	fields, err := toFields(req)
	if err != nil {
		return err
	}
	return s.patch(ctx, models.CollectionStudents, id, fields, "failed to update student")
}

// DeleteStudent removes a student. An empty id fails without touching the store.
func (s *AppState) DeleteStudent(ctx context.Context, id string) error {
	if err := requireID(id, "student ID is required for deletion"); err != nil {
		return err
	}
	return s.remove(ctx, models.CollectionStudents, id, "failed to delete student")
}

// AddStaff creates a staff record. Subject is kept only for teaching staff
// and Role only for support staff.
func (s *AppState) AddStaff(ctx context.Context, req CreateStaffRequest) (dto.MutationAck, error) {
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}
	if req.Category == "" {
		req.Category = models.StaffTeaching
	}
	if req.Status == "" {
		req.Status = models.StaffActive
	}
	fields, err := toFields(req)
	if err != nil {
		return dto.MutationAck{}, err
	}
	fields["createdAt"] = s.timestamp()
	fields = clearIrrelevantStaffField(fields, req.Category)

	id, err := s.create(ctx, models.CollectionStaff, fields, "failed to add staff")
	return dto.MutationAck{ID: id}, err
}

// UpdateStaff patches a staff record. Switching category clears the field
// that no longer applies.
func (s *AppState) UpdateStaff(ctx context.Context, id string, req UpdateStaffRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	fields, err := toFields(req)
	if err != nil {
		return err
	}
	if req.Category != nil {
		fields = clearIrrelevantStaffField(fields, *req.Category)
	}
	return s.patch(ctx, models.CollectionStaff, id, fields, "failed to update staff")
}

// DeleteStaff removes a staff member.
func (s *AppState) DeleteStaff(ctx context.Context, id string) error {
	return s.remove(ctx, models.CollectionStaff, id, "failed to delete staff")
}

// PaySalary records a salary payout for a staff member as an expense.
func (s *AppState) PaySalary(ctx context.Context, staffID string, req SalaryPaymentRequest) (dto.MutationAck, error) {
	if err := requireID(staffID, "staff ID is required for salary payment"); err != nil {
		return dto.MutationAck{}, err
	}
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}
	member, ok := s.FindStaff(staffID)
	if !ok {
		return dto.MutationAck{}, appErrors.Clone(appErrors.ErrNotFound, "staff member not found")
	}

	amount := member.Salary
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount.Float() <= 0 {
		return dto.MutationAck{}, appErrors.Clone(appErrors.ErrValidation, "salary amount must be greater than zero")
	}
	date := req.Date
	if date == "" {
		date = s.now().Format(dateLayout)
	}

	return s.AddExpense(ctx, CreateExpenseRequest{
		Title:    "Salary - " + member.Name,
		Category: models.ExpenseCategorySalary,
		Amount:   amount,
		Date:     date,
		StaffID:  member.ID,
	})
}

// AddInvoice allocates a display identifier for the student's class, stamps
// createdAt and derives the status when none was supplied.
func (s *AppState) AddInvoice(ctx context.Context, req CreateInvoiceRequest) (dto.MutationAck, error) {
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}
	if req.Status == "" {
		req.Status = models.DeriveInvoiceStatus(req.Amount.Float(), req.Paid.Float())
	}

	displayID, err := s.allocator.Next(ctx, req.StudentClass, s.Invoices())
	if err != nil {
		s.logger.Error("invoice id allocation failed", zap.String("class", req.StudentClass), zap.Error(err))
		return dto.MutationAck{}, appErrors.Wrap(err, appErrors.ErrGatewayFailure.Code, appErrors.ErrGatewayFailure.Status, "failed to add invoice")
	}

	fields, err := toFields(req)
	if err != nil {
		return dto.MutationAck{}, err
	}
	fields["displayId"] = displayID
	fields["createdAt"] = s.timestamp()

	id, err := s.create(ctx, models.CollectionInvoices, fields, "failed to add invoice")
	if err != nil {
		return dto.MutationAck{}, err
	}
	return dto.MutationAck{ID: id, DisplayID: displayID}, nil
}

// UpdateInvoice patches an invoice. Legacy invoices without a display
// identifier receive one, and the status is re-derived when amounts change
// without an explicit status.
func (s *AppState) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (dto.MutationAck, error) {
	if err := requireID(id, "invoice ID is required for update"); err != nil {
		return dto.MutationAck{}, err
	}
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}

	existing, found := s.FindInvoice(id)
	if req.Status == nil && (req.Amount != nil || req.Paid != nil) {
		amount, paid := existing.Amount, existing.Paid
		if req.Amount != nil {
			amount = *req.Amount
		}
		if req.Paid != nil {
			paid = *req.Paid
		}
		status := models.DeriveInvoiceStatus(amount.Float(), paid.Float())
		req.Status = &status
	}

	fields, err := toFields(req)
	if err != nil {
		return dto.MutationAck{}, err
	}

	displayID := ""
	if req.DisplayID != nil {
		displayID = *req.DisplayID
	}
	if displayID == "" && (!found || existing.DisplayID == "") {
		class := existing.StudentClass
		if req.StudentClass != nil && *req.StudentClass != "" {
			class = *req.StudentClass
		}
		displayID, err = s.allocator.Next(ctx, class, s.Invoices())
		if err != nil {
			s.logger.Error("invoice id allocation failed", zap.String("class", class), zap.Error(err))
			return dto.MutationAck{}, appErrors.Wrap(err, appErrors.ErrGatewayFailure.Code, appErrors.ErrGatewayFailure.Status, "failed to update invoice")
		}
		fields["displayId"] = displayID
	} else if displayID == "" {
		displayID = existing.DisplayID
	}

	if err := s.patch(ctx, models.CollectionInvoices, id, fields, "failed to update invoice"); err != nil {
		return dto.MutationAck{}, err
	}
	return dto.MutationAck{ID: id, DisplayID: displayID}, nil
}

// DeleteInvoice removes an invoice. An empty id fails without touching the store.
func (s *AppState) DeleteInvoice(ctx context.Context, id string) error {
	if err := requireID(id, "invoice ID is required for deletion"); err != nil {
		return err
	}
	return s.remove(ctx, models.CollectionInvoices, id, "failed to delete invoice")
}

// AddExpense creates an expense record.
func (s *AppState) AddExpense(ctx context.Context, req CreateExpenseRequest) (dto.MutationAck, error) {
	if err := s.validate(req); err != nil {
		return dto.MutationAck{}, err
	}
	fields, err := toFields(req)
	if err != nil {
		return dto.MutationAck{}, err
	}
	id, err := s.create(ctx, models.CollectionExpenses, fields, "failed to add expense")
	return dto.MutationAck{ID: id}, err
}

// UpdateExpense patches an expense.
func (s *AppState) UpdateExpense(ctx context.Context, id string, req UpdateExpenseRequest) error {
	if err := s.validate(req); err != nil {
		return err
	}
	fields, err := toFields(req)
	if err != nil {
		return err
	}
	return s.patch(ctx, models.CollectionExpenses, id, fields, "failed to update expense")
}

// DeleteExpense removes an expense.
func (s *AppState) DeleteExpense(ctx context.Context, id string) error {
	return s.remove(ctx, models.CollectionExpenses, id, "failed to delete expense")
}

func (s *AppState) create(ctx context.Context, collection string, fields models.Fields, message string) (string, error) {
	id, err := s.store.Create(ctx, collection, fields)
	s.observeMutation(collection, "create", err)
	if err != nil {
		s.logger.Error(message, zap.String("collection", collection), zap.Error(err))
		return "", gatewayError(err, message)
	}
	return id, nil
}

func (s *AppState) patch(ctx context.Context, collection, id string, fields models.Fields, message string) error {
	err := s.store.Patch(ctx, collection, id, fields)
	s.observeMutation(collection, "update", err)
	if err != nil {
		s.logger.Error(message, zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return gatewayError(err, message)
	}
	return nil
}

func (s *AppState) remove(ctx context.Context, collection, id, message string) error {
	err := s.store.Delete(ctx, collection, id)
	s.observeMutation(collection, "delete", err)
	if err != nil {
		s.logger.Error(message, zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return gatewayError(err, message)
	}
	return nil
}

func (s *AppState) observeMutation(collection, op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMutation(collection, op, err)
	}
}

func (s *AppState) validate(req interface{}) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	return nil
}

func (s *AppState) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// gatewayError keeps not-found and invalid-argument failures recognisable and
// reports everything else as a gateway failure.
func gatewayError(err error, message string) error {
	for _, known := range []*appErrors.Error{appErrors.ErrNotFound, appErrors.ErrInvalidArgument} {
		if errors.Is(err, known) {
			return appErrors.Wrap(err, known.Code, known.Status, message)
		}
	}
	return appErrors.Wrap(err, appErrors.ErrGatewayFailure.Code, appErrors.ErrGatewayFailure.Status, message)
}

func requireID(id, message string) error {
	if strings.TrimSpace(id) == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, message)
	}
	return nil
}

func clearIrrelevantStaffField(fields models.Fields, category models.StaffCategory) models.Fields {
	if category == models.StaffSupport {
		fields["subject"] = nil
	} else {
		fields["role"] = nil
	}
	return fields
}

func toFields(v interface{}) (models.Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	fields := models.Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
