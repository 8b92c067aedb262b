package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/services"
)

type FineHandler struct {
	fineService *services.FineService
}

func NewFineHandler(fineService *services.FineService) *FineHandler {
	return &FineHandler{fineService: fineService}
}

type RegisterFineRequest struct {
	Plate       string  `json:"plate" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	IssuedAt    string  `json:"issued_at" binding:"required"`
	Authority   string  `json:"authority"`
	ExternalRef *string `json:"external_ref"`
}

// @Summary Register Traffic Fine
// @Description Record a traffic fine against a vehicle plate
// @Tags Fines
// @Accept json
// @Produce json
// @Param request body RegisterFineRequest true "Fine"
// @Success 201 {object} models.TrafficFine
// @Router /fines [post]
func (h *FineHandler) Register(c *gin.Context) {
	var req RegisterFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issuedAt, err := time.Parse("2006-01-02", req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issued_at"})
		return
	}

	fine, err := h.fineService.Register(c.Request.Context(), req.Plate, req.Amount, issuedAt, req.Authority, req.ExternalRef)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fine": fine})
}

// @Summary Get Fine
// @Description Get a traffic fine by ID
// @Tags Fines
// @Accept json
// @Produce json
// @Param fine_id path int true "Fine ID"
// @Success 200 {object} models.TrafficFine
// @Failure 404 {object} map[string]string
// @Router /fines/{fine_id} [get]
func (h *FineHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("fine_id"), 10, 32)
	fine, err := h.fineService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fine not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fine": fine})
}

// @Summary Assign Fine
// @Description Assign a fine to the lease covering the vehicle on the issue date
// @Tags Fines
// @Accept json
// @Produce json
// @Param fine_id path int true "Fine ID"
// @Success 200 {object} models.TrafficFine
// @Router /fines/{fine_id}/assign [post]
func (h *FineHandler) Assign(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("fine_id"), 10, 32)
	fine, err := h.fineService.Assign(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrNoCoveringLease) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"fine": fine, "error": "No lease covered the vehicle on the fine date"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fine": fine, "message": "Fine assigned"})
}
