package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"splitkar/internal/middleware"
	"splitkar/internal/service"
)

type ExpenseHandler struct {
	svc *service.ExpenseService
}

func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req service.CreateExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expense, err := h.svc.Create(middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// List returns the caller's expenses, optionally scoped with ?group_id=.
func (h *ExpenseHandler) List(c *gin.Context) {
	groupID, ok := optionalGroupID(c)
	if !ok {
		return
	}
	expenses, err := h.svc.UserExpenses(middleware.GetUserID(c), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// Between returns expenses shared between the caller and another user.
func (h *ExpenseHandler) Between(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	groupID, ok := optionalGroupID(c)
	if !ok {
		return
	}
	expenses, err := h.svc.ExpensesBetween(middleware.GetUserID(c), uint(otherID), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := expenseUUID(c)
	if !ok {
		return
	}
	expense, err := h.svc.GetByUUID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

func (h *ExpenseHandler) Edit(c *gin.Context) {
	id, ok := expenseUUID(c)
	if !ok {
		return
	}
	var req service.EditExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expense, err := h.svc.Edit(middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, ok := expenseUUID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func expenseUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("expense_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return uuid.Nil, false
	}
	return id, true
}

func optionalGroupID(c *gin.Context) (*uint, bool) {
	raw := c.Query("group_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group_id"})
		return nil, false
	}
	gid := uint(id)
	return &gid, true
}
