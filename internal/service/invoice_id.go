package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/playschool-admin/internal/models"
)

// InvoicePrefixBase starts every invoice display identifier.
const InvoicePrefixBase = "APS"

// ClassCode buckets a free-text class name. Patterns are checked in order and
// the first match wins, so "Pre-KG 1" is PR rather than C1.
func ClassCode(studentClass string) string {
	normalized := normalizeClass(studentClass)
	switch {
	case strings.Contains(normalized, "pre") || strings.Contains(normalized, "pkg"):
		return "PR"
	case strings.Contains(normalized, "lkg") || strings.Contains(normalized, "nursery"):
		return "LK"
	case strings.Contains(normalized, "ukg") || strings.Contains(normalized, "kinder"):
		return "UK"
	case strings.Contains(normalized, "1"):
		return "C1"
	case strings.Contains(normalized, "2"):
		return "C2"
	default:
		return "INV"
	}
}

// InvoicePrefix returns the display identifier prefix for a class.
func InvoicePrefix(studentClass string) string {
	return InvoicePrefixBase + ClassCode(studentClass)
}

// GenerateInvoiceID derives the next display identifier for studentClass
// from the known invoices. The sequence is max(matched count, highest
// observed number) + 1, which survives gaps left by deleted invoices and
// legacy records without identifiers. Uniqueness only holds when calls are
// serialized over an up-to-date snapshot.
func GenerateInvoiceID(studentClass string, invoices []models.Invoice) string {
	prefix, next := nextInvoiceSequence(studentClass, invoices)
	return FormatInvoiceID(prefix, next)
}

// FormatInvoiceID pads the sequence to three digits; larger numbers simply grow.
func FormatInvoiceID(prefix string, sequence int64) string {
	return fmt.Sprintf("%s%03d", prefix, sequence)
}

func nextInvoiceSequence(studentClass string, invoices []models.Invoice) (string, int64) {
	normalized := normalizeClass(studentClass)
	prefix := InvoicePrefix(studentClass)

	var matched, highest int64
	for _, inv := range invoices {
		if strings.HasPrefix(inv.DisplayID, prefix) {
			matched++
			if n := parseSequence(strings.TrimPrefix(inv.DisplayID, prefix)); n > highest {
				highest = n
			}
			continue
		}
		if inv.StudentClass != "" && normalizeClass(inv.StudentClass) == normalized {
			matched++
		}
	}

	if matched > highest {
		highest = matched
	}
	return prefix, highest + 1
}

func parseSequence(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func normalizeClass(studentClass string) string {
	return strings.ToLower(strings.TrimSpace(studentClass))
}

// DisplayIDAllocator hands out invoice display identifiers.
type DisplayIDAllocator interface {
	Next(ctx context.Context, studentClass string, invoices []models.Invoice) (string, error)
}

// SnapshotAllocator derives identifiers from the local invoice snapshot only.
type SnapshotAllocator struct{}

// Next implements DisplayIDAllocator.
func (SnapshotAllocator) Next(_ context.Context, studentClass string, invoices []models.Invoice) (string, error) {
	return GenerateInvoiceID(studentClass, invoices), nil
}

type sequenceReserver interface {
	Reserve(ctx context.Context, prefix string, floor int64) (int64, error)
}

// SequenceAllocator reserves identifiers from an atomic per-prefix counter.
// The snapshot-derived value acts as a floor so the counter catches up with
// invoices created before it existed.
type SequenceAllocator struct {
	counter sequenceReserver
}

// NewSequenceAllocator constructs a SequenceAllocator.
func NewSequenceAllocator(counter sequenceReserver) *SequenceAllocator {
	return &SequenceAllocator{counter: counter}
}

// Next implements DisplayIDAllocator.
func (a *SequenceAllocator) Next(ctx context.Context, studentClass string, invoices []models.Invoice) (string, error) {
	prefix, floor := nextInvoiceSequence(studentClass, invoices)
	seq, err := a.counter.Reserve(ctx, prefix, floor)
	if err != nil {
		return "", fmt.Errorf("reserve invoice sequence for %s: %w", prefix, err)
	}
	return FormatInvoiceID(prefix, seq), nil
}
