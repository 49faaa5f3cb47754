package handler

import (
	"net/http"
	"strconv"
	"time"

	"headtohead/backend/internal/friendship"
	"headtohead/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// FriendshipHandler translates friendship service results into HTTP
// responses. It holds no business rules of its own.
type FriendshipHandler struct {
	service *friendship.Service
}

func NewFriendshipHandler(service *friendship.Service) *FriendshipHandler {
	return &FriendshipHandler{service: service}
}

// FriendshipResponse is the wire shape of a friendship record.
type FriendshipResponse struct {
	ID          uint                    `json:"id" example:"1"`
	RequesterID uint                    `json:"requester_id" example:"1"`
	AddresseeID uint                    `json:"addressee_id" example:"2"`
	Status      models.FriendshipStatus `json:"status" example:"pending"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// FriendRequestInput defines the body for sending a friend request.
type FriendRequestInput struct {
	AddresseeID uint `json:"addressee_id" binding:"required" example:"2"`
}

// PendingRequestResponse is a pending incoming request with its sender.
type PendingRequestResponse struct {
	ID        uint               `json:"id" example:"1"`
	Requester PublicUserResponse `json:"requester"`
	CreatedAt time.Time          `json:"created_at"`
}

// errorStatus maps stable friendship error codes to HTTP statuses.
// Transport picks a response off the code alone, never the message.
var errorStatus = map[friendship.Code]int{
	friendship.CodeSelfRequest:         http.StatusBadRequest,
	friendship.CodePartyNotFound:       http.StatusNotFound,
	friendship.CodeRelationshipBlocked: http.StatusForbidden,
	friendship.CodeAlreadyPending:      http.StatusConflict,
	friendship.CodeAlreadyFriends:      http.StatusConflict,
	friendship.CodeNotFound:            http.StatusNotFound,
	friendship.CodeUnauthorized:        http.StatusForbidden,
	friendship.CodeInvalidStatus:       http.StatusBadRequest,
	friendship.CodeStorageUnavailable:  http.StatusInternalServerError,
}

func respondFriendshipError(c *gin.Context, err error) {
	if fe, ok := err.(*friendship.Error); ok {
		status, known := errorStatus[fe.Code]
		if !known {
			status = http.StatusBadRequest
		}
		message := fe.Message
		if fe.Code == friendship.CodeStorageUnavailable {
			// Internal details are logged by the service, not leaked.
			message = "Internal server error"
		}
		c.JSON(status, gin.H{"error": message, "code": string(fe.Code)})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func toFriendshipResponse(record *models.Friendship) FriendshipResponse {
	return FriendshipResponse{
		ID:          record.ID,
		RequesterID: record.RequesterID,
		AddresseeID: record.AddresseeID,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user. If that user already has a pending request towards the caller, the friendship is accepted immediately.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Addressee"
// @Success      201  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Relationship blocked"
// @Failure      404  {object}  ErrorResponse "User not found or inactive"
// @Failure      409  {object}  ErrorResponse "Already pending or already friends"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests [post]
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	var input FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Request(c.Request.Context(), viewerID.(uint), input.AddresseeID)
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	status := http.StatusCreated
	if record.Status == models.StatusAccepted {
		// Mutual request resolved straight to friendship.
		status = http.StatusOK
	}
	c.JSON(status, toFriendshipResponse(record))
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request addressed to the caller.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friendship ID"
// @Success      200  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse "Not pending"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the addressee"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests/{id}/accept [post]
func (h *FriendshipHandler) AcceptRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid friendship ID"})
		return
	}

	record, serr := h.service.Accept(c.Request.Context(), uint(friendshipID), viewerID.(uint))
	if serr != nil {
		respondFriendshipError(c, serr)
		return
	}

	c.JSON(http.StatusOK, toFriendshipResponse(record))
}

// RejectRequest godoc
// @Summary      Reject friend request
// @Description  Rejects a pending friend request addressed to the caller. The request is deleted; the pair may start over later.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friendship ID"
// @Success      200  {object}  map[string]string "{"message": "Friend request rejected"}"
// @Failure      400  {object}  ErrorResponse "Not pending"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the addressee"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests/{id}/reject [post]
func (h *FriendshipHandler) RejectRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid friendship ID"})
		return
	}

	if serr := h.service.Reject(c.Request.Context(), uint(friendshipID), viewerID.(uint)); serr != nil {
		respondFriendshipError(c, serr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}

// BlockRequest godoc
// @Summary      Block friend request
// @Description  Blocks a pending friend request addressed to the caller. Neither side can create a new relationship afterwards.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Friendship ID"
// @Success      200  {object}  FriendshipResponse
// @Failure      400  {object}  ErrorResponse "Not pending"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the addressee"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests/{id}/block [post]
func (h *FriendshipHandler) BlockRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid friendship ID"})
		return
	}

	record, serr := h.service.Block(c.Request.Context(), uint(friendshipID), viewerID.(uint))
	if serr != nil {
		respondFriendshipError(c, serr)
		return
	}

	c.JSON(http.StatusOK, toFriendshipResponse(record))
}

// RemoveFriend godoc
// @Summary      Remove friend
// @Description  Removes an accepted friendship between the caller and the given user. Either participant may do this.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path      int  true  "Other user's ID"
// @Success      200  {object}  map[string]string "{"message": "Friendship removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Friendship not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/{userID} [delete]
func (h *FriendshipHandler) RemoveFriend(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	otherUserID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if serr := h.service.Remove(c.Request.Context(), viewerID.(uint), uint(otherUserID)); serr != nil {
		respondFriendshipError(c, serr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friendship removed"})
}

// GetFriends godoc
// @Summary      List friends
// @Description  Lists the caller's accepted friends.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends [get]
func (h *FriendshipHandler) GetFriends(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	records, err := h.service.Friends(c.Request.Context(), viewerID.(uint))
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	friends := []PublicUserResponse{}
	for _, record := range records {
		// Pick whichever side of the record is not the viewer.
		other := record.Requester
		if record.RequesterID == viewerID.(uint) {
			other = record.Addressee
		}
		if other.ID == 0 {
			continue
		}
		friends = append(friends, buildPublicUserResponse(other, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, friends)
}

// GetPendingRequests godoc
// @Summary      List pending friend requests
// @Description  Lists pending friend requests addressed to the caller, newest first.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   PendingRequestResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends/requests [get]
func (h *FriendshipHandler) GetPendingRequests(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	records, err := h.service.PendingRequests(c.Request.Context(), viewerID.(uint))
	if err != nil {
		respondFriendshipError(c, err)
		return
	}

	requests := []PendingRequestResponse{}
	for _, record := range records {
		if record.Requester.ID == 0 {
			continue
		}
		requests = append(requests, PendingRequestResponse{
			ID:        record.ID,
			Requester: buildPublicUserResponse(record.Requester, viewerID.(uint)),
			CreatedAt: record.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, requests)
}
