package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func sampleRows() []OutingReportRow {
	gid := uint(7)
	return []OutingReportRow{
		{
			RequestID:   1,
			CreatorName: "alice",
			Date:        time.Date(2026, time.September, 6, 0, 0, 0, 0, time.Local),
			Time:        "12:00",
			Status:      "ready",
			MemberCount: 3,
			GroupID:     &gid,
			CheckedIn:   2,
			VerifiedIn:  2,
			CreatedAt:   time.Date(2026, time.September, 5, 18, 0, 0, 0, time.Local),
		},
		{
			RequestID:   2,
			CreatorName: "bob",
			Date:        time.Date(2026, time.September, 6, 0, 0, 0, 0, time.Local),
			Time:        "17:30",
			Status:      "pending",
			MemberCount: 1,
		},
	}
}

func TestExportCSV(t *testing.T) {
	exporter := NewReportExporter()

	raw, filename, contentType, err := exporter.Export(FormatCSV, ReportData{Outings: sampleRows()})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if contentType != "text/csv" {
		t.Errorf("content type = %s, want text/csv", contentType)
	}
	if !strings.HasSuffix(filename, ".csv") {
		t.Errorf("filename = %s, want .csv suffix", filename)
	}

	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[1][1] != "alice" || records[1][6] != "7" {
		t.Errorf("first row = %v", records[1])
	}
	if records[2][6] != "" {
		t.Errorf("ungrouped request must have empty group id, got %q", records[2][6])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	exporter := NewReportExporter()

	if _, _, _, err := exporter.Export("xml", ReportData{}); err == nil {
		t.Error("unknown format must error")
	}
}

func TestGetDateRange(t *testing.T) {
	start, end, err := GetDateRange(DateRangeCustom, "2026-09-01", "2026-09-07")
	if err != nil {
		t.Fatalf("custom range: %v", err)
	}
	if !end.After(start) {
		t.Errorf("end %v must be after start %v", end, start)
	}
	if end.Sub(start) != 7*24*time.Hour {
		t.Errorf("span = %v, want 7 days (end date inclusive)", end.Sub(start))
	}

	if _, _, err := GetDateRange("fortnight", "", ""); err == nil {
		t.Error("unknown range must error")
	}

	start, end, err = GetDateRange(DateRangeDaily, "", "")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("daily span = %v, want 24h", end.Sub(start))
	}
}
