package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Overdue Obligations CSV
// @Description Download a CSV of overdue obligations on active leases
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file "csv"
// @Router /reports/overdue [get]
func (h *ReportHandler) OverdueCSV(c *gin.Context) {
	buf, err := h.reportService.GenerateOverdueCSV(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("overdue_report_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Collections CSV
// @Description Download a CSV of collected payments, optionally within a date range
// @Tags Reports
// @Produce text/csv
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file "csv"
// @Router /reports/collections [get]
func (h *ReportHandler) CollectionsCSV(c *gin.Context) {
	buf, err := h.reportService.GenerateCollectionsCSV(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("collections_report_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Collection Stats XLSX
// @Description Download the monthly collection stats as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "xlsx"
// @Router /reports/stats.xlsx [get]
func (h *ReportHandler) StatsXLSX(c *gin.Context) {
	data, filename, err := h.reportService.ExportStatsXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
