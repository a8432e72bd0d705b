package handler

import (
	"net/http"
	"strconv"

	"splitkar/internal/middleware"
	"splitkar/internal/service"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	svc *service.FriendService
}

func NewFriendHandler(svc *service.FriendService) *FriendHandler {
	return &FriendHandler{svc: svc}
}

type FriendRequestRequest struct {
	ToUserID    uint   `json:"to_user_id"`
	ProfileCode string `json:"profile_code"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req FriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ToUserID == 0 && req.ProfileCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_user_id or profile_code is required"})
		return
	}
	fr, err := h.svc.SendRequest(middleware.GetUserID(c), req.ToUserID, req.ProfileCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": fr})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	h.respond(c, true)
}

func (h *FriendHandler) Decline(c *gin.Context) {
	h.respond(c, false)
}

func (h *FriendHandler) respond(c *gin.Context, accept bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	if err := h.svc.Respond(middleware.GetUserID(c), uint(id), accept); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) PendingRequests(c *gin.Context) {
	reqs, err := h.svc.PendingRequests(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *FriendHandler) List(c *gin.Context) {
	friends, err := h.svc.Friends(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) Unfriend(c *gin.Context) {
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.svc.Unfriend(middleware.GetUserID(c), uint(otherID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
