package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Grievances     *GrievanceHandler
	Classification *ClassificationHandler
	Reminders      *ReminderHandler
}

// RegisterRoutes mounts the grievance API on rg.
func RegisterRoutes(rg *gin.RouterGroup, h Handlers) {
	rg.POST("/classify", h.Classification.Classify)
	rg.POST("/similarity", h.Classification.Similar)

	grievances := rg.Group("/grievances")
	grievances.POST("", h.Grievances.Submit)
	grievances.POST("/track", h.Grievances.Track)
	grievances.POST("/:trackingId/remind", h.Reminders.Send)

	rg.GET("/departments", h.Grievances.Departments)
	departments := rg.Group("/departments/:department")
	departments.GET("/grievances", h.Grievances.List)
	departments.PATCH("/grievances/:trackingId/status", h.Grievances.UpdateStatus)
	departments.GET("/grievances/:trackingId/timeline", h.Grievances.Timeline)
	departments.GET("/reminders/pending", h.Reminders.Pending)

	reminders := rg.Group("/reminders")
	reminders.GET("", h.Reminders.History)
	reminders.POST("/scan", h.Reminders.Scan)
	reminders.GET("/stats", h.Reminders.Stats)
	reminders.GET("/export", h.Reminders.Export)

	rg.GET("/notifications", h.Reminders.Notifications)
}
