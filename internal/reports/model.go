package reports

import "time"

// Export formats. Empty format means a JSON response.
const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

// Date range presets mirrored from the query layer.
const (
	DateRangeDaily   = "daily"
	DateRangeWeekly  = "weekly"
	DateRangeMonthly = "monthly"
	DateRangeCustom  = "custom"
)

// OutingReportRow is one outing request flattened for export.
type OutingReportRow struct {
	RequestID   uint      `json:"request_id"`
	CreatorName string    `json:"creator_name"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	MemberCount int       `json:"member_count"`
	GroupID     *uint     `json:"group_id,omitempty"`
	CheckedIn   int       `json:"checked_in"`
	VerifiedIn  int       `json:"verified_in"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportData is the payload handed to the exporter.
type ReportData struct {
	Outings []OutingReportRow
}

// OutingReportFilter bounds the report query.
type OutingReportFilter struct {
	Start  time.Time
	End    time.Time
	Status string
	UserID *uint
}
