package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
)

type ObligationHandler struct {
	obligationService *services.ObligationService
	reconciliation    *services.ReconciliationService
	storage           *storage.LocalStorage
}

func NewObligationHandler(obligationService *services.ObligationService, reconciliation *services.ReconciliationService, storage *storage.LocalStorage) *ObligationHandler {
	return &ObligationHandler{
		obligationService: obligationService,
		reconciliation:    reconciliation,
		storage:           storage,
	}
}

// @Summary List Obligations
// @Description Get a paginated list of payment obligations
// @Tags Obligations
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Param lease_id query int false "Filter by lease"
// @Success 200 {object} map[string]interface{}
// @Router /obligations [get]
func (h *ObligationHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["type"] = c.Query("type")
	query.Filters["lease_id"] = c.Query("lease_id")

	obligations, total, err := h.obligationService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, o := range obligations {
		responses = append(responses, o.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"obligations": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Obligation Stats
// @Description Get monthly collection statistics (pending, collected, overdue)
// @Tags Obligations
// @Accept json
// @Produce json
// @Success 200 {object} repository.ObligationStats
// @Router /obligations/stats [get]
func (h *ObligationHandler) Stats(c *gin.Context) {
	stats, err := h.obligationService.GetMonthlyStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Get Obligation
// @Description Get a payment obligation by ID
// @Tags Obligations
// @Accept json
// @Produce json
// @Param obligation_id path int true "Obligation ID"
// @Success 200 {object} models.PaymentObligationResponse
// @Failure 404 {object} map[string]string
// @Router /obligations/{obligation_id} [get]
func (h *ObligationHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("obligation_id"), 10, 32)
	obligation, err := h.obligationService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Obligation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"obligation": obligation.ToResponse()})
}

type ManualPaymentRequest struct {
	Amount      float64 `json:"amount" binding:"required"`
	PaymentDate string  `json:"payment_date"`
	Method      *string `json:"method"`
}

// @Summary Record Manual Payment
// @Description Apply a payment to a single obligation, refreshing its late fee first
// @Tags Obligations
// @Accept json
// @Produce json
// @Param obligation_id path int true "Obligation ID"
// @Param request body ManualPaymentRequest true "Payment"
// @Success 200 {object} models.PaymentObligationResponse
// @Router /obligations/{obligation_id}/payments [post]
func (h *ObligationHandler) ManualPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("obligation_id"), 10, 32)

	var req ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var paymentDate *time.Time
	if req.PaymentDate != "" {
		date, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
			return
		}
		paymentDate = &date
	}

	obligation, err := h.reconciliation.RecordManualPayment(c.Request.Context(), uint(id), req.Amount, paymentDate, req.Method)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) || errors.Is(err, services.ErrInvalidState) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"obligation": obligation.ToResponse(), "message": "Payment recorded"})
}

// @Summary Upload Receipt
// @Description Upload a receipt image/pdf for an obligation
// @Tags Obligations
// @Accept multipart/form-data
// @Produce json
// @Param obligation_id path int true "Obligation ID"
// @Param receipt formData file true "Receipt File"
// @Success 200 {object} map[string]string
// @Router /obligations/{obligation_id}/receipt [post]
func (h *ObligationHandler) UploadReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("obligation_id"), 10, 32)

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file required"})
		return
	}
	defer file.Close()

	if c.Request.ContentLength > 0 && c.Request.ContentLength > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	if _, err := h.obligationService.UploadReceipt(c.Request.Context(), uint(id), file, header); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Receipt uploaded"})
}

// @Summary Download Receipt
// @Description Download the stored receipt for an obligation
// @Tags Obligations
// @Produce application/octet-stream
// @Param obligation_id path int true "Obligation ID"
// @Success 200 {file} file "receipt"
// @Router /obligations/{obligation_id}/receipt [get]
func (h *ObligationHandler) DownloadReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("obligation_id"), 10, 32)

	obligation, err := h.obligationService.FindByID(c.Request.Context(), uint(id))
	if err != nil || obligation.ReceiptPath == nil || *obligation.ReceiptPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
		return
	}

	fullPath := h.storage.GetFullPath(*obligation.ReceiptPath)
	if !h.storage.Exists(*obligation.ReceiptPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Receipt not found"})
		return
	}

	c.FileAttachment(fullPath, "receipt")
}
