package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
)

type seedTarget interface {
	AddStudent(ctx context.Context, req CreateStudentRequest) (dto.MutationAck, error)
	AddStaff(ctx context.Context, req CreateStaffRequest) (dto.MutationAck, error)
	AddInvoice(ctx context.Context, req CreateInvoiceRequest) (dto.MutationAck, error)
	AddExpense(ctx context.Context, req CreateExpenseRequest) (dto.MutationAck, error)
}

// SeedResult counts the records written by a seed run.
type SeedResult struct {
	Students int `json:"students"`
	Staff    int `json:"staff"`
	Invoices int `json:"invoices"`
	Expenses int `json:"expenses"`
}

// SeedService loads a demonstration data set through the normal write path.
type SeedService struct {
	target seedTarget
	logger *zap.Logger
}

// NewSeedService constructs a SeedService.
func NewSeedService(target seedTarget, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{target: target, logger: logger}
}

// Seed writes the sample records one at a time and stops at the first failure.
func (s *SeedService) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	for _, student := range sampleStudents {
		ack, err := s.target.AddStudent(ctx, student)
		if err != nil {
			return result, fmt.Errorf("seed student %s: %w", student.Name, err)
		}
		result.Students++
		s.logger.Debug("seeded student", zap.String("id", ack.ID))
	}

	for _, member := range sampleStaff {
		if _, err := s.target.AddStaff(ctx, member); err != nil {
			return result, fmt.Errorf("seed staff %s: %w", member.Name, err)
		}
		result.Staff++
	}

	for _, inv := range sampleInvoices {
		if _, err := s.target.AddInvoice(ctx, inv); err != nil {
			return result, fmt.Errorf("seed invoice for %s: %w", inv.Student, err)
		}
		result.Invoices++
	}

	for _, exp := range sampleExpenses {
		if _, err := s.target.AddExpense(ctx, exp); err != nil {
			return result, fmt.Errorf("seed expense %s: %w", exp.Title, err)
		}
		result.Expenses++
	}

	s.logger.Info("database seeded",
		zap.Int("students", result.Students),
		zap.Int("staff", result.Staff),
		zap.Int("invoices", result.Invoices),
		zap.Int("expenses", result.Expenses),
	)
	return result, nil
}

var sampleStudents = []CreateStudentRequest{
	{Name: "Alice Johnson", Class: "Kindergarten", Parent: "Bob Johnson", Phone: "555-0101", Status: models.StudentActive},
	{Name: "Charlie Smith", Class: "Pre-Nursery", Parent: "Sarah Smith", Phone: "555-0102", Status: models.StudentActive},
	{Name: "David Brown", Class: "Nursery", Parent: "Mike Brown", Phone: "555-0103", Status: models.StudentInactive},
	{Name: "Eva Davis", Class: "Kindergarten", Parent: "Emily Davis", Phone: "555-0104", Status: models.StudentActive},
	{Name: "Frank Wilson", Class: "Pre-Nursery", Parent: "Tom Wilson", Phone: "555-0105", Status: models.StudentActive},
	{Name: "Grace Lee", Class: "Nursery", Parent: "David Lee", Phone: "555-0106", Status: models.StudentActive},
}

var sampleStaff = []CreateStaffRequest{
	{Name: "Mrs. Anderson", Category: models.StaffTeaching, Subject: "English", Email: "anderson@kidzone.com", Phone: "555-1001", Salary: 25000, Status: models.StaffActive},
	{Name: "Mr. Baker", Category: models.StaffTeaching, Subject: "Math", Email: "baker@kidzone.com", Phone: "555-1002", Salary: 25000, Status: models.StaffActive},
	{Name: "Ms. Clark", Category: models.StaffTeaching, Subject: "Art", Email: "clark@kidzone.com", Phone: "555-1003", Salary: 22000, Status: models.StaffOnLeave},
	{Name: "Mr. Davis", Category: models.StaffTeaching, Subject: "Science", Email: "davis@kidzone.com", Phone: "555-1004", Salary: 24000, Status: models.StaffActive},
	{Name: "Ms. Evans", Category: models.StaffTeaching, Subject: "Music", Email: "evans@kidzone.com", Phone: "555-1005", Salary: 22000, Status: models.StaffActive},
	{Name: "Mr. John (Driver)", Category: models.StaffSupport, Role: "Driver", Email: "john@kidzone.com", Phone: "555-2001", Salary: 15000, Status: models.StaffActive},
	{Name: "Mrs. Sarah (Cleaner)", Category: models.StaffSupport, Role: "Cleaner", Email: "sarah@kidzone.com", Phone: "555-2002", Salary: 12000, Status: models.StaffActive},
	{Name: "Mr. Mike (Security)", Category: models.StaffSupport, Role: "Security", Email: "mike@kidzone.com", Phone: "555-2003", Salary: 14000, Status: models.StaffActive},
}

var sampleInvoices = []CreateInvoiceRequest{
	{Student: "Alice Johnson", StudentClass: "Kindergarten", Amount: 450, Paid: 450, Date: "2023-10-01", Status: models.InvoicePaid, Type: "Tuition"},
	{Student: "Charlie Smith", StudentClass: "Pre-Nursery", Amount: 450, Paid: 200, Date: "2023-10-02", Status: models.InvoicePending, Type: "Tuition"},
	{Student: "David Brown", StudentClass: "Nursery", Amount: 50, Paid: 0, Date: "2023-10-05", Status: models.InvoiceOverdue, Type: "Transport"},
}

var sampleExpenses = []CreateExpenseRequest{
	{Title: "Classroom Supplies", Category: "Stationery", Amount: 350, Date: "2023-10-02"},
	{Title: "Plumbing Repair", Category: "Maintenance", Amount: 120.5, Date: "2023-10-04"},
	{Title: "Internet Bill", Category: "Utilities", Amount: 89.99, Date: "2023-10-01"},
}
