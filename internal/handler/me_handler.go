package handler

import (
	"fmt"
	"net/http"

	"splitkar/internal/middleware"
	"splitkar/internal/repository"
	"splitkar/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

const maxAvatarBytes = 5 << 20

type MeHandler struct {
	userRepo *repository.UserRepository
	images   cloudinary.Client
}

func NewMeHandler(userRepo *repository.UserRepository, images cloudinary.Client) *MeHandler {
	return &MeHandler{userRepo: userRepo, images: images}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"username":     u.Username,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"profile_code": u.ProfileCode,
		"avatar_url":   u.AvatarURL,
	})
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *MeHandler) UpdateProfile(c *gin.Context) {
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// UploadPicture stores a new profile picture on Cloudinary and saves the URL.
func (h *MeHandler) UploadPicture(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image upload not configured"})
		return
	}
	u, err := h.userRepo.GetByID(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	fileHeader, err := c.FormFile("picture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "picture file is required"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "picture exceeds 5MB limit"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read picture"})
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf("user_%d", u.ID)
	url, thumb, err := h.images.UploadAvatar(c.Request.Context(), file, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	u.AvatarURL = url
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url, "thumbnail_url": thumb})
}
