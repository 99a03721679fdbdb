package dto

import "github.com/noah-isme/playschool-admin/internal/models"

// DashboardStats captures the landing page figures. It is derived from the
// live collections on every read and never persisted.
type DashboardStats struct {
	TotalStudents      int               `json:"totalStudents"`
	TotalStaff         int               `json:"totalStaff"`
	TotalFeesCollected float64           `json:"totalFeesCollected"`
	TotalExpenses      float64           `json:"totalExpenses"`
	NetBalance         float64           `json:"netBalance"`
	OutstandingFees    float64           `json:"outstandingFees"`
	MonthlyStats       []MonthlyFeePoint `json:"monthlyStats"`
	RecentAdmissions   []models.Student  `json:"recentAdmissions"`
}

// MonthlyFeePoint is the fees collected in one calendar month, named "Jan 2024".
type MonthlyFeePoint struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}
