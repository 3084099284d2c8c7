package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kryail/settlement/internal/models"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

type withdrawalRequest struct {
	UserID        uint            `json:"user_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Asset         string          `json:"asset" binding:"required"`
	Currency      string          `json:"currency" binding:"required"`
	DestinationID string          `json:"destination_id" binding:"required"`
}

type sendRequest struct {
	UserID         uint            `json:"user_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"required"`
	RecipientPhone string          `json:"recipient_phone" binding:"required"`
}

func (s *Server) handleStartDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instructions, err := s.svc.StartDeposit(c.Request.Context(), req.UserID, req.Currency)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "instructions": instructions})
}

func (s *Server) handleStartWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := s.svc.StartWithdrawal(c.Request.Context(), req.UserID, req.Amount, req.Asset, req.Currency, req.DestinationID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": status})
}

func (s *Server) handleStartSend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := s.svc.StartSend(c.Request.Context(), req.UserID, req.Amount, req.Currency, req.RecipientPhone)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": status})
}

func (s *Server) handleGetBalance(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	balances, err := s.svc.GetBalance(c.Request.Context(), uint(userID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "balances": balances})
}

func (s *Server) handleGetHistory(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	transactions, err := s.svc.GetHistory(c.Request.Context(), uint(userID), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "transactions": transactions})
}

// respondError maps business outcomes onto client-facing statuses; anything
// else is a server-side failure.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrRecipientNotFound),
		errors.Is(err, models.ErrWalletNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrSelfTransfer),
		errors.Is(err, models.ErrNotOnboarded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Errorf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
