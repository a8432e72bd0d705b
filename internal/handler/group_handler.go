package handler

import (
	"net/http"
	"strconv"

	"splitkar/internal/middleware"
	"splitkar/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	svc        *service.GroupService
	expenseSvc *service.ExpenseService
}

func NewGroupHandler(svc *service.GroupService, expenseSvc *service.ExpenseService) *GroupHandler {
	return &GroupHandler{svc: svc, expenseSvc: expenseSvc}
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := h.svc.Create(middleware.GetUserID(c), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": g})
}

func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.svc.GroupsOf(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *GroupHandler) Get(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	g, err := h.svc.Get(middleware.GetUserID(c), uint(groupID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g})
}

type InviteRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *GroupHandler) Invite(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := h.svc.Invite(middleware.GetUserID(c), uint(groupID), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": inv})
}

func (h *GroupHandler) AcceptInvitation(c *gin.Context) {
	h.respondInvitation(c, true)
}

func (h *GroupHandler) DeclineInvitation(c *gin.Context) {
	h.respondInvitation(c, false)
}

func (h *GroupHandler) respondInvitation(c *gin.Context, accept bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invitation id"})
		return
	}
	if err := h.svc.RespondInvitation(middleware.GetUserID(c), uint(id), accept); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *GroupHandler) PendingInvitations(c *gin.Context) {
	invs, err := h.svc.PendingInvitations(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invs})
}

func (h *GroupHandler) Expenses(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	expenses, err := h.expenseSvc.GroupExpenses(middleware.GetUserID(c), uint(groupID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}
