package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"splitkar/internal/middleware"
	"splitkar/internal/service"
)

type BalanceHandler struct {
	svc *service.BalanceService
}

func NewBalanceHandler(svc *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{svc: svc}
}

// List returns the caller's unsettled balances, optionally scoped with
// ?group_id=.
func (h *BalanceHandler) List(c *gin.Context) {
	groupID, ok := optionalGroupID(c)
	if !ok {
		return
	}
	balances, err := h.svc.UserBalances(middleware.GetUserID(c), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

// Get returns the pairwise balance between the caller and another user for
// one context. The amount follows the canonical sign convention: positive
// means the lower-id user owes the higher-id user.
func (h *BalanceHandler) Get(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	groupID, ok := optionalGroupID(c)
	if !ok {
		return
	}
	amount, err := h.svc.GetBalance(middleware.GetUserID(c), uint(otherID), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": amount})
}

// Total returns the aggregate balance between the caller and another user
// across every context.
func (h *BalanceHandler) Total(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	total, err := h.svc.GetTotalBalance(middleware.GetUserID(c), uint(otherID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_balance": total})
}

// Recalculate rebuilds the caller's balances from the ledger.
func (h *BalanceHandler) Recalculate(c *gin.Context) {
	if err := h.svc.RecalculateUser(middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recalculated"})
}
