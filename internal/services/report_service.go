package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"stockmaster/internal/models"
	"stockmaster/internal/repositories"
)

var (
	ErrReportsNotIncluded   = fmt.Errorf("reports are not included in the current plan")
	ErrPDFExportNotIncluded = fmt.Errorf("PDF export is not included in the current plan")
)

const (
	reportBucket    = "stockmaster-reports"
	reportURLExpiry = 24 * time.Hour
)

// ReportService produces sales reports for a shop. Summary reports are
// available on any plan with reports access; PDF exports additionally
// require the plan's PDF flag and are stored in object storage behind a
// presigned link.
type ReportService interface {
	MonthlySummary(ctx context.Context, companyID string, ent Entitlement, month time.Time) (*models.SalesSummary, error)
	ExportMonthlyPDF(ctx context.Context, companyID string, ent Entitlement, month time.Time) (string, error)
}

type reportService struct {
	sales     SalesService
	companies repositories.CompanyRepository
	storage   StorageService
}

func NewReportService(sales SalesService, companies repositories.CompanyRepository, storage StorageService) ReportService {
	return &reportService{
		sales:     sales,
		companies: companies,
		storage:   storage,
	}
}

func monthBounds(month time.Time) (time.Time, time.Time) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (r *reportService) MonthlySummary(ctx context.Context, companyID string, ent Entitlement, month time.Time) (*models.SalesSummary, error) {
	if !ent.Limits.ReportsAccess {
		return nil, ErrReportsNotIncluded
	}
	from, to := monthBounds(month)
	summary, err := r.sales.Summarize(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	return summary, nil
}

func (r *reportService) ExportMonthlyPDF(ctx context.Context, companyID string, ent Entitlement, month time.Time) (string, error) {
	if !ent.Limits.ReportsAccess {
		return "", ErrReportsNotIncluded
	}
	if !ent.Limits.PDFExports {
		return "", ErrPDFExportNotIncluded
	}

	company, err := r.companies.GetByID(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("failed to get company: %w", err)
	}

	from, to := monthBounds(month)
	summary, err := r.sales.Summarize(ctx, companyID, from, to)
	if err != nil {
		return "", fmt.Errorf("failed to summarize sales: %w", err)
	}

	pdfBytes, err := renderSalesReportPDF(company, summary)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := r.storage.EnsureBucketExists(ctx, reportBucket); err != nil {
		return "", fmt.Errorf("failed to ensure report bucket: %w", err)
	}

	objectName := fmt.Sprintf("%s/sales-%s.pdf", companyID, from.Format("2006-01"))
	if err := r.storage.UploadDocument(ctx, reportBucket, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	url, err := r.storage.GetPresignedURL(reportBucket, objectName, reportURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign report url: %w", err)
	}
	return url, nil
}

func renderSalesReportPDF(company *models.Company, summary *models.SalesSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Monthly Sales Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Shop: %s (%s)", company.Name, company.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s", summary.PeriodStart.Format("02 Jan 2006"), summary.PeriodEnd.AddDate(0, 0, -1).Format("02 Jan 2006")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02 Jan 2006 15:04")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Total sales: %d", summary.TotalSales))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Revenue: %.2f %s", summary.Revenue, company.Currency))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Profit: %.2f %s", summary.Profit, company.Currency))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Top Products")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 7, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Qty Sold", "1", 0, "R", true, 0, "")
	pdf.CellFormat(50, 7, "Revenue", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(summary.TopProducts) == 0 {
		pdf.CellFormat(170, 7, "No sales recorded in this period", "1", 1, "C", false, 0, "")
	}
	for _, p := range summary.TopProducts {
		pdf.CellFormat(90, 7, p.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", p.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, fmt.Sprintf("%.2f %s", p.Revenue, company.Currency), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
