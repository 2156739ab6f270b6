package reports

import "context"

type Service interface {
	OutingHistory(ctx context.Context, filter OutingReportFilter) ([]OutingReportRow, error)
	ExportOutingHistory(ctx context.Context, filter OutingReportFilter, format string) ([]byte, string, string, error)
}

type service struct {
	repo     *Repository
	exporter ReportExporter
}

func NewService(repo *Repository, exporter ReportExporter) Service {
	return &service{repo: repo, exporter: exporter}
}

func (s *service) OutingHistory(ctx context.Context, filter OutingReportFilter) ([]OutingReportRow, error) {
	return s.repo.OutingRows(ctx, filter)
}

func (s *service) ExportOutingHistory(ctx context.Context, filter OutingReportFilter, format string) ([]byte, string, string, error) {
	rows, err := s.repo.OutingRows(ctx, filter)
	if err != nil {
		return nil, "", "", err
	}
	return s.exporter.Export(format, ReportData{Outings: rows})
}
