package dto

import "github.com/noah-isme/smart-planner-api/internal/models"

// Export formats supported for focus plans.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
	ExportFormatICS = "ics"
)

// FocusPlanQuery selects the days and cadence of a focus plan.
type FocusPlanQuery struct {
	StartDate    string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Days         int    `form:"days" validate:"omitempty,min=1,max=31"`
	FocusMinutes int    `form:"focus_minutes" validate:"omitempty,min=5,max=240"`
	BreakMinutes *int   `form:"break_minutes" validate:"omitempty,min=0,max=120"`
	Timezone     string `form:"timezone" validate:"omitempty,timezone"`
	Format       string `form:"format" validate:"omitempty,oneof=csv pdf ics"`
}

// FocusPlanResponse is a multi-day focus plan.
type FocusPlanResponse struct {
	Timezone          string           `json:"timezone"`
	FocusMinutes      int              `json:"focus_minutes"`
	BreakMinutes      int              `json:"break_minutes"`
	TotalFocusMinutes int              `json:"total_focus_minutes"`
	Days              []models.DayPlan `json:"days"`
}

// ExportFile is a rendered focus plan ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
