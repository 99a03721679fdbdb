package handler

import "github.com/gin-gonic/gin"

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth      *AuthHandler
	Students  *StudentHandler
	Staff     *StaffHandler
	Invoices  *InvoiceHandler
	Expenses  *ExpenseHandler
	Dashboard *DashboardHandler
	Reports   *ReportHandler
	Admin     *AdminHandler
}

// Register mounts every API route on group. requireSession guards all routes
// except sign-up and sign-in.
func (r Routes) Register(group gin.IRouter, requireSession gin.HandlerFunc) {
	auth := group.Group("/auth")
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/logout", requireSession, r.Auth.Logout)
	auth.GET("/session", requireSession, r.Auth.Session)

	protected := group.Group("")
	protected.Use(requireSession)

	protected.GET("/students", r.Students.List)
	protected.POST("/students", r.Students.Create)
	protected.GET("/students/:id", r.Students.Get)
	protected.PUT("/students/:id", r.Students.Update)
	protected.DELETE("/students/:id", r.Students.Delete)

	protected.GET("/staff", r.Staff.List)
	protected.POST("/staff", r.Staff.Create)
	protected.GET("/staff/:id", r.Staff.Get)
	protected.PUT("/staff/:id", r.Staff.Update)
	protected.DELETE("/staff/:id", r.Staff.Delete)
	protected.POST("/staff/:id/salary-payments", r.Staff.PaySalary)

	protected.GET("/invoices", r.Invoices.List)
	protected.POST("/invoices", r.Invoices.Create)
	protected.GET("/invoices/next-id", r.Invoices.NextID)
	protected.GET("/invoices/export", r.Reports.Invoices)
	protected.GET("/invoices/:id", r.Invoices.Get)
	protected.PUT("/invoices/:id", r.Invoices.Update)
	protected.DELETE("/invoices/:id", r.Invoices.Delete)

	protected.GET("/expenses", r.Expenses.List)
	protected.POST("/expenses", r.Expenses.Create)
	protected.GET("/expenses/export", r.Reports.Expenses)
	protected.GET("/expenses/:id", r.Expenses.Get)
	protected.PUT("/expenses/:id", r.Expenses.Update)
	protected.DELETE("/expenses/:id", r.Expenses.Delete)

	protected.GET("/dashboard", r.Dashboard.Stats)
	protected.POST("/admin/seed", r.Admin.Seed)
}
