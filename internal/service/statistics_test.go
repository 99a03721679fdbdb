package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playschool-admin/internal/models"
)

func TestTotalFeesCollectedCoercesMalformedValues(t *testing.T) {
	var invoices []models.Invoice
	require.NoError(t, json.Unmarshal([]byte(`[
		{"paid": 450},
		{"paid": "200"},
		{"paid": "bad"},
		{"paid": null},
		{}
	]`), &invoices))

	assert.Equal(t, 650.0, TotalFeesCollected(invoices))
}

func TestComputeDashboardStatsEmpty(t *testing.T) {
	stats := ComputeDashboardStats(nil, nil, nil, nil)

	assert.Zero(t, stats.TotalStudents)
	assert.Zero(t, stats.TotalFeesCollected)
	assert.Zero(t, stats.NetBalance)
	assert.Empty(t, stats.MonthlyStats)
	assert.Empty(t, stats.RecentAdmissions)
}

func TestComputeDashboardStatsNetBalance(t *testing.T) {
	invoices := []models.Invoice{
		{Amount: 450, Paid: 450},
		{Amount: 450, Paid: 200},
		{Amount: 50, Paid: 80},
	}
	expenses := []models.Expense{{Amount: 350}, {Amount: 120.5}}

	stats := ComputeDashboardStats(
		[]models.Student{{ID: "s1"}},
		[]models.StaffMember{{ID: "t1"}, {ID: "t2"}},
		invoices, expenses,
	)

	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 2, stats.TotalStaff)
	assert.Equal(t, 730.0, stats.TotalFeesCollected)
	assert.Equal(t, 470.5, stats.TotalExpenses)
	assert.Equal(t, 259.5, stats.NetBalance)
	assert.Equal(t, 250.0, stats.OutstandingFees)
}

func TestMonthlyFeeSeriesKeepsSixMostRecentMonths(t *testing.T) {
	var invoices []models.Invoice
	for month := 1; month <= 8; month++ {
		invoices = append(invoices, models.Invoice{
			Date: fmt.Sprintf("2024-%02d-10", month),
			Paid: models.Number(month * 100),
		})
	}
	invoices = append(invoices,
		models.Invoice{Date: "2024-08-20", Paid: 50},
		models.Invoice{Date: "", Paid: 999},
		models.Invoice{Date: "not a date", Paid: 999},
	)

	series := MonthlyFeeSeries(invoices)
	require.Len(t, series, 6)
	assert.Equal(t, "Mar 2024", series[0].Name)
	assert.Equal(t, 300.0, series[0].Amount)
	assert.Equal(t, "Aug 2024", series[5].Name)
	assert.Equal(t, 850.0, series[5].Amount)
}

func TestMonthlyFeeSeriesOrdersAcrossYears(t *testing.T) {
	series := MonthlyFeeSeries([]models.Invoice{
		{Date: "2024-01-05", Paid: 10},
		{Date: "2023-12-31T23:00:00Z", Paid: 20},
		{Date: "2023-10-01", Paid: 30},
	})

	require.Len(t, series, 3)
	assert.Equal(t, []string{"Oct 2023", "Dec 2023", "Jan 2024"},
		[]string{series[0].Name, series[1].Name, series[2].Name})
}

func TestRecentAdmissionsNewestFirst(t *testing.T) {
	students := make([]models.Student, 0, 7)
	for day := 1; day <= 7; day++ {
		students = append(students, models.Student{
			ID:        fmt.Sprintf("s%d", day),
			CreatedAt: fmt.Sprintf("2023-10-%02dT10:00:00Z", day),
		})
	}

	recent := RecentAdmissions(students)
	require.Len(t, recent, 5)
	ids := make([]string, 0, len(recent))
	for _, s := range recent {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"s7", "s6", "s5", "s4", "s3"}, ids)
	assert.Equal(t, "s1", students[0].ID)
}

func TestRecentAdmissionsMissingCreatedAtSortsLast(t *testing.T) {
	recent := RecentAdmissions([]models.Student{
		{ID: "legacy"},
		{ID: "new", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "garbled", CreatedAt: "yesterday"},
	})

	require.Len(t, recent, 3)
	assert.Equal(t, "new", recent[0].ID)
	assert.Equal(t, []string{"legacy", "garbled"}, []string{recent[1].ID, recent[2].ID})
}
