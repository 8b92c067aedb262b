package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ReportService struct {
	leaseRepo      repository.LeaseRepository
	obligationRepo repository.ObligationRepository
	customerRepo   repository.CustomerRepository
}

func NewReportService(
	leaseRepo repository.LeaseRepository,
	obligationRepo repository.ObligationRepository,
	customerRepo repository.CustomerRepository,
) *ReportService {
	return &ReportService{
		leaseRepo:      leaseRepo,
		obligationRepo: obligationRepo,
		customerRepo:   customerRepo,
	}
}

// GenerateOverdueCSV generates a CSV of overdue obligations on active leases
func (s *ReportService) GenerateOverdueCSV(ctx context.Context) (*bytes.Buffer, error) {
	obligations, err := s.obligationRepo.FindOverdueForActiveLeases(ctx)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"ID", "Lease", "Customer", "Phone", "Vehicle", "Due Date", "Days Overdue", "Amount", "Late Fee", "Balance"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, o := range obligations {
		customerName := "N/A"
		phone := "N/A"
		if o.Lease.Customer.ID != 0 {
			customerName = o.Lease.Customer.FullName
			phone = o.Lease.Customer.Phone
		}

		vehicle := "N/A"
		if o.Lease.Vehicle.ID != 0 {
			vehicle = o.Lease.Vehicle.Label()
		}

		dueDate := ""
		if o.DueDate != nil {
			dueDate = o.DueDate.Format("2006-01-02")
		}

		record := []string{
			fmt.Sprintf("%d", o.ID),
			fmt.Sprintf("%d", o.LeaseID),
			customerName,
			phone,
			vehicle,
			dueDate,
			fmt.Sprintf("%d", o.DaysOverdue),
			fmt.Sprintf("%.2f", o.Amount),
			fmt.Sprintf("%.2f", o.LateFeeAmount),
			fmt.Sprintf("%.2f", o.Balance),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateCollectionsCSV generates a CSV of payments collected in a date range
func (s *ReportService) GenerateCollectionsCSV(ctx context.Context, startDate, endDate string) (*bytes.Buffer, error) {
	query := repository.NewListQuery()
	query.Filters["status"] = models.ObligationStatusPaid
	query.PerPage = 0

	obligations, _, err := s.obligationRepo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	var filtered []models.PaymentObligation
	if startDate != "" && endDate != "" {
		start, _ := time.Parse("2006-01-02", startDate)
		end, _ := time.Parse("2006-01-02", endDate)
		end = end.Add(23*time.Hour + 59*time.Minute + 59*time.Second)

		for _, o := range obligations {
			if o.PaymentDate != nil && !o.PaymentDate.Before(start) && !o.PaymentDate.After(end) {
				filtered = append(filtered, o)
			}
		}
	} else {
		filtered = obligations
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"ID", "Lease", "Type", "Amount Paid", "Payment Date", "Method", "Transaction"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, o := range filtered {
		payDate := ""
		if o.PaymentDate != nil {
			payDate = o.PaymentDate.Format("2006-01-02")
		}
		method := "N/A"
		if o.PaymentMethod != nil {
			method = *o.PaymentMethod
		}
		transaction := ""
		if o.TransactionID != nil {
			transaction = *o.TransactionID
		}

		record := []string{
			fmt.Sprintf("%d", o.ID),
			fmt.Sprintf("%d", o.LeaseID),
			o.Type,
			fmt.Sprintf("%.2f", o.PaidValue()),
			payDate,
			method,
			transaction,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return b, nil
}

// ExportStatsXLSX exports the monthly collection stats as a spreadsheet
func (s *ReportService) ExportStatsXLSX(ctx context.Context) ([]byte, string, error) {
	stats, err := s.obligationRepo.GetMonthlyStats(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Collections"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Monthly Collections Report")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Metric")
	_ = f.SetCellValue(sheet, "B3", "Value")

	_ = f.SetCellValue(sheet, "A4", "Pending This Month")
	_ = f.SetCellValue(sheet, "B4", stats.PendingThisMonth)
	_ = f.SetCellValue(sheet, "A5", "Collected This Month")
	_ = f.SetCellValue(sheet, "B5", stats.CollectedThisMonth)
	_ = f.SetCellValue(sheet, "A6", "Total Overdue")
	_ = f.SetCellValue(sheet, "B6", stats.TotalOverdue)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collections_report_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// GenerateLeaseStatementPDF generates a PDF statement of account for a lease
func (s *ReportService) GenerateLeaseStatementPDF(ctx context.Context, leaseID uint) (*bytes.Buffer, error) {
	lease, err := s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Lease Statement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 10, fmt.Sprintf("Customer: %s", lease.Customer.FullName))
	pdf.Ln(6)
	pdf.Cell(40, 10, fmt.Sprintf("Vehicle: %s", lease.Vehicle.Label()))
	pdf.Ln(6)
	pdf.Cell(40, 10, fmt.Sprintf("Monthly rent: %.2f", lease.MonthlyRent))
	pdf.Ln(6)
	pdf.Cell(40, 10, fmt.Sprintf("Generated: %s", time.Now().Format("02/01/2006")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(35, 8, "Due Date")
	pdf.Cell(30, 8, "Type")
	pdf.Cell(25, 8, "Amount")
	pdf.Cell(25, 8, "Paid")
	pdf.Cell(25, 8, "Balance")
	pdf.Cell(30, 8, "Status")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	var totalBalance float64
	for _, o := range lease.Obligations {
		dueDate := ""
		if o.DueDate != nil {
			dueDate = o.DueDate.Format("02/01/2006")
		}

		pdf.Cell(35, 8, dueDate)
		pdf.Cell(30, 8, o.Type)
		pdf.Cell(25, 8, fmt.Sprintf("%.2f", o.Amount))
		pdf.Cell(25, 8, fmt.Sprintf("%.2f", o.PaidValue()))
		pdf.Cell(25, 8, fmt.Sprintf("%.2f", o.Balance))
		pdf.Cell(30, 8, models.NormalizeStatus(o.Status))
		pdf.Ln(8)

		totalBalance += o.Balance
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(40, 8, fmt.Sprintf("Outstanding balance: %.2f", totalBalance))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}

	return buf, nil
}
