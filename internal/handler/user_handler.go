package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"headtohead/backend/internal/database"
	"headtohead/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"testuser"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	Points   int    `json:"points"`

	// Relationship between the viewer and this user, if any.
	RelationStatus *models.FriendshipStatus `json:"relation_status,omitempty"`
	RequestedByMe  *bool                    `json:"requested_by_me,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"testuser"`
	Email    string `json:"email" example:"test@example.com"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
	Points   int    `json:"points"`
}

// SearchUsers godoc
// @Summary      Search for users
// @Description  Searches for active users by username with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search query for username"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func SearchUsers(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	searchQuery := c.Query("q")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Max limit
	}

	query := database.DB.Model(&models.User{}).Where("is_active = ?", true)
	if searchQuery != "" {
		query = query.Where("username ILIKE ?", "%"+searchQuery+"%")
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	var users []models.User
	offset := (page - 1) * limit
	if err := query.Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	userResponses := []PublicUserResponse{}
	for _, user := range users {
		// Don't show the viewer in the search results
		if user.ID == viewerID.(uint) {
			continue
		}
		userResponses = append(userResponses, buildPublicUserResponse(user, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(userResponses, totalItems, page, limit))
}

// GetUserByID godoc
// @Summary      Get user by ID
// @Description  Retrieves the public profile for a specific user by their ID, including relationship data.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  PublicUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func GetUserByID(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// If target is the same as viewer, redirect to /me
	if viewerID.(uint) == uint(targetUserID) {
		GetMe(c)
		return
	}

	var targetUser models.User
	if err := database.DB.First(&targetUser, uint(targetUserID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, buildPublicUserResponse(targetUser, viewerID.(uint)))
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func GetMe(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, viewerID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, PrivateUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Wins:     user.Wins,
		Losses:   user.Losses,
		Draws:    user.Draws,
		Points:   user.Points,
	})
}

func buildPublicUserResponse(targetUser models.User, viewerID uint) PublicUserResponse {
	response := PublicUserResponse{
		ID:       targetUser.ID,
		Username: targetUser.Username,
		Wins:     targetUser.Wins,
		Losses:   targetUser.Losses,
		Draws:    targetUser.Draws,
		Points:   targetUser.Points,
	}

	lo, hi := models.NormalizePair(viewerID, targetUser.ID)
	var relation models.Friendship
	err := database.DB.Where("pair_min_id = ? AND pair_max_id = ?", lo, hi).First(&relation).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("handler: relation lookup failed for pair (%d, %d): %v", lo, hi, err)
		}
		return response
	}

	requestedByMe := relation.RequesterID == viewerID
	response.RelationStatus = &relation.Status
	response.RequestedByMe = &requestedByMe

	return response
}
