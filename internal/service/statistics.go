package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/playschool-admin/internal/dto"
	"github.com/noah-isme/playschool-admin/internal/models"
)

const (
	monthlySeriesLength = 6
	recentAdmissionsMax = 5
)

var recordTimeLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ComputeDashboardStats derives every landing page figure from the given
// collections. It never fails: malformed numbers count as zero and malformed
// dates are skipped or sorted last.
func ComputeDashboardStats(students []models.Student, staff []models.StaffMember, invoices []models.Invoice, expenses []models.Expense) dto.DashboardStats {
	fees := TotalFeesCollected(invoices)
	spent := TotalExpenses(expenses)
	return dto.DashboardStats{
		TotalStudents:      len(students),
		TotalStaff:         len(staff),
		TotalFeesCollected: fees,
		TotalExpenses:      spent,
		NetBalance:         fees - spent,
		OutstandingFees:    OutstandingFees(invoices),
		MonthlyStats:       MonthlyFeeSeries(invoices),
		RecentAdmissions:   RecentAdmissions(students),
	}
}

// TotalFeesCollected sums paid amounts.
func TotalFeesCollected(invoices []models.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		total += inv.Paid.Float()
	}
	return total
}

// TotalExpenses sums expense amounts.
func TotalExpenses(expenses []models.Expense) float64 {
	var total float64
	for _, exp := range expenses {
		total += exp.Amount.Float()
	}
	return total
}

// OutstandingFees sums positive balances; overpayments do not offset other invoices.
func OutstandingFees(invoices []models.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		if balance := inv.Balance(); balance > 0 {
			total += balance
		}
	}
	return total
}

type yearMonth struct {
	year  int
	month time.Month
}

// MonthlyFeeSeries groups paid amounts by invoice month and returns the six
// most recent months that have data, oldest first.
func MonthlyFeeSeries(invoices []models.Invoice) []dto.MonthlyFeePoint {
	totals := make(map[yearMonth]float64)
	for _, inv := range invoices {
		if strings.TrimSpace(inv.Date) == "" {
			continue
		}
		ts, ok := parseRecordTime(inv.Date)
		if !ok {
			continue
		}
		totals[yearMonth{year: ts.Year(), month: ts.Month()}] += inv.Paid.Float()
	}

	keys := make([]yearMonth, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	if len(keys) > monthlySeriesLength {
		keys = keys[len(keys)-monthlySeriesLength:]
	}

	series := make([]dto.MonthlyFeePoint, 0, len(keys))
	for _, key := range keys {
		series = append(series, dto.MonthlyFeePoint{
			Name:   time.Date(key.year, key.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006"),
			Amount: totals[key],
		})
	}
	return series
}

// RecentAdmissions returns the five most recently created students, newest first.
func RecentAdmissions(students []models.Student) []models.Student {
	sorted := make([]models.Student, len(students))
	copy(sorted, students)

	created := make(map[string]time.Time, len(sorted))
	stamp := func(s models.Student) time.Time {
		if ts, ok := created[s.CreatedAt]; ok {
			return ts
		}
		ts, _ := parseRecordTime(s.CreatedAt)
		created[s.CreatedAt] = ts
		return ts
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return stamp(sorted[i]).After(stamp(sorted[j]))
	})

	if len(sorted) > recentAdmissionsMax {
		sorted = sorted[:recentAdmissionsMax]
	}
	return sorted
}

// parseRecordTime reads the date formats found in stored records. Missing or
// unparsable values yield the zero time.
func parseRecordTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range recordTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
