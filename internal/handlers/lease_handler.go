package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
)

type LeaseHandler struct {
	leaseService   *services.LeaseService
	reconciliation *services.ReconciliationService
	reportService  *services.ReportService
}

func NewLeaseHandler(leaseService *services.LeaseService, reconciliation *services.ReconciliationService, reportService *services.ReportService) *LeaseHandler {
	return &LeaseHandler{
		leaseService:   leaseService,
		reconciliation: reconciliation,
		reportService:  reportService,
	}
}

// @Summary List Leases
// @Description Get a paginated list of leases
// @Tags Leases
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param customer_id query int false "Filter by customer"
// @Success 200 {object} map[string]interface{}
// @Router /leases [get]
func (h *LeaseHandler) Index(c *gin.Context) {
	listQuery := repository.NewListQuery()
	listQuery.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	listQuery.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	listQuery.Search = c.Query("search")

	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		listQuery.SortBy = parts[0]
		if len(parts) > 1 {
			listQuery.SortDir = parts[1]
		}
	}

	customerID, _ := strconv.ParseUint(c.Query("customer_id"), 10, 32)
	vehicleID, _ := strconv.ParseUint(c.Query("vehicle_id"), 10, 32)

	query := &repository.LeaseQuery{
		ListQuery:  listQuery,
		Status:     c.Query("status"),
		CustomerID: uint(customerID),
		VehicleID:  uint(vehicleID),
	}

	leases, total, err := h.leaseService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, l := range leases {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"leases": responses,
		"pagination": gin.H{
			"page":        listQuery.Page,
			"per_page":    listQuery.PerPage,
			"total":       total,
			"total_pages": (total + int64(listQuery.PerPage) - 1) / int64(listQuery.PerPage),
		},
	})
}

// @Summary Get Lease
// @Description Get a lease by ID with customer, vehicle and obligations
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Failure 404 {object} map[string]string
// @Router /leases/{lease_id} [get]
func (h *LeaseHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.FindByIDWithDetails(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lease not found"})
		return
	}

	var obligations []interface{}
	for _, o := range lease.Obligations {
		obligations = append(obligations, o.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"lease":       lease.ToResponse(),
		"obligations": obligations,
	})
}

type CreateLeaseRequest struct {
	CustomerID       uint     `json:"customer_id" binding:"required"`
	VehicleID        uint     `json:"vehicle_id" binding:"required"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	MonthlyRent      float64  `json:"monthly_rent" binding:"required"`
	DueDay           int      `json:"due_day"`
	LateFeeDailyRate *float64 `json:"late_fee_daily_rate"`
	LateFeeCap       *float64 `json:"late_fee_cap"`
	Notes            *string  `json:"notes"`
}

// @Summary Create Lease
// @Description Draft a new vehicle lease
// @Tags Leases
// @Accept json
// @Produce json
// @Param request body CreateLeaseRequest true "Lease"
// @Success 201 {object} models.LeaseResponse
// @Router /leases [post]
func (h *LeaseHandler) Create(c *gin.Context) {
	var req CreateLeaseRequest
	if err := BindNestedOrFlat(c, "lease", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CustomerID == 0 || req.VehicleID == 0 || req.MonthlyRent <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id, vehicle_id and monthly_rent are required"})
		return
	}

	lease := &models.Lease{
		CustomerID:  req.CustomerID,
		VehicleID:   req.VehicleID,
		MonthlyRent: req.MonthlyRent,
		DueDay:      req.DueDay,
		Status:      models.LeaseStatusDraft,
		Notes:       req.Notes,
	}
	if req.LateFeeDailyRate != nil {
		lease.LateFeeDailyRate = *req.LateFeeDailyRate
	}
	if req.LateFeeCap != nil {
		lease.LateFeeCap = *req.LateFeeCap
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		lease.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		lease.EndDate = &end
	}

	if err := h.leaseService.Create(c.Request.Context(), lease); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lease": lease.ToResponse()})
}

// @Summary Activate Lease
// @Description Activate a draft lease and materialize its payment schedule
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Router /leases/{lease_id}/activate [post]
func (h *LeaseHandler) Activate(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.Activate(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrMissingDates) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Lease has no start or end date"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse(), "message": "Lease activated"})
}

// @Summary Close Lease
// @Description Close an active lease; the vehicle becomes available again
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Router /leases/{lease_id}/close [post]
func (h *LeaseHandler) Close(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.Close(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse(), "message": "Lease closed"})
}

// @Summary Cancel Lease
// @Description Cancel a draft lease
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} models.LeaseResponse
// @Router /leases/{lease_id}/cancel [post]
func (h *LeaseHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	lease, err := h.leaseService.Cancel(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lease": lease.ToResponse(), "message": "Lease cancelled"})
}

type ReconcilePaymentRequest struct {
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	Method      *string `json:"method"`
	Description *string `json:"description"`
}

// @Summary Reconcile Payment
// @Description Apply an incoming payment across the lease's outstanding obligations, oldest due date first. A zero amount refreshes statuses only.
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Param request body ReconcilePaymentRequest false "Payment"
// @Success 200 {object} map[string]interface{}
// @Router /leases/{lease_id}/reconcile [post]
func (h *LeaseHandler) Reconcile(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)

	var req ReconcilePaymentRequest
	c.ShouldBindJSON(&req)

	input := services.PaymentInput{
		Amount:      req.Amount,
		Method:      req.Method,
		Description: req.Description,
	}
	if req.PaymentDate != "" {
		date, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_date"})
			return
		}
		input.PaymentDate = &date
	}

	obligations, err := h.reconciliation.ReconcilePayment(c.Request.Context(), uint(id), input)
	if err != nil {
		var recErr *services.ReconciliationError
		if errors.As(err, &recErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": recErr.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, o := range obligations {
		responses = append(responses, o.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"obligations": responses})
}

// @Summary Resolve Duplicate Obligations
// @Description Merge and delete duplicate rent obligations for the same calendar month
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} map[string]int
// @Router /leases/{lease_id}/resolve_duplicates [post]
func (h *LeaseHandler) ResolveDuplicates(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	fixed, err := h.reconciliation.ResolveDuplicates(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fixed_count": fixed})
}

// @Summary Synchronize Payment Schedule
// @Description Materialize missing monthly obligations and refresh overdue state up to the current month
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease_id path int true "Lease ID"
// @Success 200 {object} map[string]int
// @Router /leases/{lease_id}/synchronize [post]
func (h *LeaseHandler) Synchronize(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	generated, updated, err := h.reconciliation.SynchronizeSchedule(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": generated, "updated": updated})
}

// @Summary Lease Statement PDF
// @Description Download a PDF statement of account for a lease
// @Tags Leases
// @Produce application/pdf
// @Param lease_id path int true "Lease ID"
// @Success 200 {file} file "statement"
// @Router /leases/{lease_id}/statement [get]
func (h *LeaseHandler) Statement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("lease_id"), 10, 32)
	buf, err := h.reportService.GenerateLeaseStatementPDF(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lease not found"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=lease_statement.pdf")
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
