package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ReportExporter renders a report in the requested format and returns the
// bytes, filename and content type.
type ReportExporter interface {
	Export(format string, data ReportData) ([]byte, string, string, error)
}

type reportExporter struct{}

func NewReportExporter() ReportExporter {
	return &reportExporter{}
}

func (e *reportExporter) Export(format string, data ReportData) ([]byte, string, string, error) {
	timestamp := time.Now().Format("20060102_150405")

	switch format {
	case FormatCSV:
		raw, err := e.exportOutingsCSV(data.Outings)
		if err != nil {
			return nil, "", "", err
		}
		return raw, fmt.Sprintf("outing_history_%s.csv", timestamp), "text/csv", nil

	case FormatExcel:
		raw, err := e.exportOutingsExcel(data.Outings)
		if err != nil {
			return nil, "", "", err
		}
		return raw, fmt.Sprintf("outing_history_%s.xlsx", timestamp),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	case FormatPDF:
		raw, err := e.exportOutingsPDF(data.Outings)
		if err != nil {
			return nil, "", "", err
		}
		return raw, fmt.Sprintf("outing_history_%s.pdf", timestamp), "application/pdf", nil

	default:
		return nil, "", "", fmt.Errorf("unsupported format: %s", format)
	}
}

var outingHeaders = []string{"Request ID", "Creator", "Date", "Time", "Status", "Members", "Group ID", "Checked In", "Verified", "Created At"}

func (e *reportExporter) exportOutingsCSV(rows []OutingReportRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(outingHeaders); err != nil {
		return nil, err
	}

	for _, r := range rows {
		groupID := ""
		if r.GroupID != nil {
			groupID = strconv.FormatUint(uint64(*r.GroupID), 10)
		}

		record := []string{
			strconv.FormatUint(uint64(r.RequestID), 10),
			r.CreatorName,
			r.Date.Format("2006-01-02"),
			r.Time,
			r.Status,
			strconv.Itoa(r.MemberCount),
			groupID,
			strconv.Itoa(r.CheckedIn),
			strconv.Itoa(r.VerifiedIn),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *reportExporter) exportOutingsExcel(rows []OutingReportRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Outing History"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for i, h := range outingHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, h)
	}

	for rIdx, r := range rows {
		row := rIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.RequestID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.CreatorName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Date.Format("2006-01-02"))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Time)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Status)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.MemberCount)
		if r.GroupID != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), *r.GroupID)
		}
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.CheckedIn)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), r.VerifiedIn)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (e *reportExporter) exportOutingsPDF(rows []OutingReportRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Outing History Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	widths := []float64{22, 50, 24, 16, 24, 20, 20, 24, 22, 40}
	for i, h := range outingHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range rows {
		groupID := "-"
		if r.GroupID != nil {
			groupID = fmt.Sprint(*r.GroupID)
		}
		pdf.CellFormat(widths[0], 6, fmt.Sprint(r.RequestID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, r.CreatorName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, r.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, r.Time, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, r.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprint(r.MemberCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[6], 6, groupID, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[7], 6, fmt.Sprint(r.CheckedIn), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[8], 6, fmt.Sprint(r.VerifiedIn), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[9], 6, r.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
