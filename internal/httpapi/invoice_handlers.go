package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ptdat/roomledger/internal/middleware"
	"github.com/ptdat/roomledger/internal/models"
	"github.com/ptdat/roomledger/internal/service"
)

type createInvoiceRequest struct {
	Title          string             `json:"title" binding:"required"`
	Amount         float64            `json:"amount" binding:"required"`
	Type           models.InvoiceType `json:"type" binding:"required"`
	SplitMethod    models.SplitMethod `json:"split_method"`
	MonthApplied   string             `json:"month_applied"`
	ApplyTo        []string           `json:"apply_to" binding:"required"`
	SplitMap       map[string]float64 `json:"split_map"`
	AdvancePayerID string             `json:"advance_payer_id"`
	PayTo          string             `json:"pay_to"`
	DueDate        int64              `json:"due_date"`
}

func (s *Server) createInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := s.invoices.CreateInvoice(c.Request.Context(), middleware.GetUserID(c), service.CreateInvoiceInput{
		RoomID:         c.Param("room_id"),
		Title:          req.Title,
		Amount:         req.Amount,
		Type:           req.Type,
		SplitMethod:    req.SplitMethod,
		MonthApplied:   req.MonthApplied,
		ApplyTo:        req.ApplyTo,
		SplitMap:       req.SplitMap,
		AdvancePayerID: req.AdvancePayerID,
		PayTo:          req.PayTo,
		DueDate:        req.DueDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *Server) listInvoices(c *gin.Context) {
	list, err := s.invoices.ListRoomInvoices(c.Request.Context(), middleware.GetUserID(c), c.Param("room_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getInvoice(c *gin.Context) {
	inv, err := s.invoices.GetInvoice(c.Request.Context(), middleware.GetUserID(c), c.Param("invoice_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	if err := s.invoices.DeleteInvoice(c.Request.Context(), middleware.GetUserID(c), c.Param("invoice_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type payRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (s *Server) applyPayment(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := s.invoices.ApplyPayment(c.Request.Context(), middleware.GetUserID(c), c.Param("invoice_id"), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}
