package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/service"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/response"
)

// Services bundles the relationship services the handler serves.
type Services struct {
	Follow   service.FollowService
	Friend   service.FriendService
	Block    service.BlockService
	Lists    service.ListService
	Counts   service.CountsService
	Profiles service.ProfileService
}

// Handler handles HTTP requests for the relationship service.
type Handler struct {
	svc            Services
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Services, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		svc:            svc,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.Use(h.authMiddleware.RequireAuth())
	{
		users := api.Group("/users")
		{
			users.POST("/:user_id/follow", h.Follow)
			users.DELETE("/:user_id/follow", h.Unfollow)
			users.POST("/:user_id/friend", h.Friend)
			users.DELETE("/:user_id/friend", h.Unfriend)
			users.POST("/:user_id/block", h.Block)
			users.DELETE("/:user_id/block", h.Unblock)

			users.GET("/:user_id/followers", h.ListFollowers)
			users.GET("/:user_id/following", h.ListFollowing)
			users.GET("/:user_id/friends", h.ListFriends)
			users.GET("/:user_id/counts", h.GetCounts)
			users.GET("/:user_id/relationship", h.GetRelationship)
			users.GET("/:user_id/profile", h.GetProfile)
		}

		me := api.Group("/me")
		{
			me.DELETE("/followers/:user_id", h.RemoveFollower)
			me.GET("/follow-requests", h.ListFollowRequests)
			me.GET("/friend-requests", h.ListFriendRequests)
			me.GET("/blocked", h.ListBlocked)
			me.PUT("/profile", h.UpdateProfile)
			me.PUT("/privacy", h.UpdatePrivacy)
		}

		followRequests := api.Group("/follow-requests")
		{
			followRequests.POST("/:user_id/accept", h.AcceptFollowRequest)
			followRequests.POST("/:user_id/decline", h.DeclineFollowRequest)
			followRequests.DELETE("/:user_id", h.CancelFollowRequest)
		}

		friendRequests := api.Group("/friend-requests")
		{
			friendRequests.POST("/:user_id/accept", h.AcceptFriendRequest)
			friendRequests.POST("/:user_id/decline", h.DeclineFriendRequest)
			friendRequests.DELETE("/:user_id", h.CancelFriendRequest)
		}
	}
}

// pair extracts the authenticated actor and the :user_id target. It writes
// the error response and returns ok=false when either is missing.
func pair(c *gin.Context) (actorID, targetID string, ok bool) {
	actorID = middleware.GetUserID(c)
	if actorID == "" {
		response.Unauthorized(c, "unauthorized")
		return "", "", false
	}
	targetID = c.Param("user_id")
	if targetID == "" {
		response.BadRequest(c, "user_id is required")
		return "", "", false
	}
	return actorID, targetID, true
}

// statusOf maps a domain error kind to its HTTP status.
func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindSelfReference, domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyExists, domain.KindConstraintViolation:
		return http.StatusConflict
	case domain.KindBlocked, domain.KindPrivate:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// fail writes err as a stable error response. Unexpected errors are logged
// and reported as msg.
func fail(c *gin.Context, err error, msg string) {
	var de *domain.Error
	if errors.As(err, &de) {
		response.Error(c, statusOf(de.Kind), de.Code, de.Message)
		return
	}
	l := pkglog.Ctx(c.Request.Context())
	l.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	response.InternalError(c, msg)
}

// pageRequest reads the cursor and limit query parameters.
func pageRequest(c *gin.Context) (service.PageRequest, bool) {
	req := service.PageRequest{Cursor: c.Query("cursor")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.BadRequest(c, "limit must be a non-negative integer")
			return req, false
		}
		req.Limit = limit
	}
	return req, true
}

// Follow handles POST /api/v1/users/:user_id/follow.
func (h *Handler) Follow(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	state, err := h.svc.Follow.FollowUser(c.Request.Context(), actorID, targetID)
	if err != nil {
		fail(c, err, "failed to follow user")
		return
	}
	response.Created(c, gin.H{"state": state})
}

// Unfollow handles DELETE /api/v1/users/:user_id/follow.
func (h *Handler) Unfollow(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Follow.UnfollowUser(c.Request.Context(), actorID, targetID); err != nil {
		fail(c, err, "failed to unfollow user")
		return
	}
	response.NoContent(c)
}

// RemoveFollower handles DELETE /api/v1/me/followers/:user_id.
func (h *Handler) RemoveFollower(c *gin.Context) {
	actorID, followerID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Follow.RemoveFollower(c.Request.Context(), actorID, followerID); err != nil {
		fail(c, err, "failed to remove follower")
		return
	}
	response.NoContent(c)
}

// AcceptFollowRequest handles POST /api/v1/follow-requests/:user_id/accept.
// :user_id is the requester; the caller is the recipient.
func (h *Handler) AcceptFollowRequest(c *gin.Context) {
	actorID, senderID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Follow.AcceptFollowRequest(c.Request.Context(), senderID, actorID); err != nil {
		fail(c, err, "failed to accept follow request")
		return
	}
	response.NoContent(c)
}

// DeclineFollowRequest handles POST /api/v1/follow-requests/:user_id/decline.
func (h *Handler) DeclineFollowRequest(c *gin.Context) {
	actorID, senderID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Follow.DeclineFollowRequest(c.Request.Context(), senderID, actorID); err != nil {
		fail(c, err, "failed to decline follow request")
		return
	}
	response.NoContent(c)
}

// CancelFollowRequest handles DELETE /api/v1/follow-requests/:user_id.
// :user_id is the recipient of the caller's request.
func (h *Handler) CancelFollowRequest(c *gin.Context) {
	actorID, recipientID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Follow.CancelFollowRequest(c.Request.Context(), actorID, recipientID); err != nil {
		fail(c, err, "failed to cancel follow request")
		return
	}
	response.NoContent(c)
}

// Friend handles POST /api/v1/users/:user_id/friend.
func (h *Handler) Friend(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	state, err := h.svc.Friend.FriendUser(c.Request.Context(), actorID, targetID)
	if err != nil {
		fail(c, err, "failed to send friend request")
		return
	}
	response.Created(c, gin.H{"state": state})
}

// Unfriend handles DELETE /api/v1/users/:user_id/friend.
func (h *Handler) Unfriend(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Friend.RemoveFriend(c.Request.Context(), actorID, targetID); err != nil {
		fail(c, err, "failed to remove friend")
		return
	}
	response.NoContent(c)
}

// AcceptFriendRequest handles POST /api/v1/friend-requests/:user_id/accept.
func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	actorID, senderID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Friend.AcceptFriendRequest(c.Request.Context(), senderID, actorID); err != nil {
		fail(c, err, "failed to accept friend request")
		return
	}
	response.NoContent(c)
}

// DeclineFriendRequest handles POST /api/v1/friend-requests/:user_id/decline.
func (h *Handler) DeclineFriendRequest(c *gin.Context) {
	actorID, senderID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Friend.DeclineFriendRequest(c.Request.Context(), senderID, actorID); err != nil {
		fail(c, err, "failed to decline friend request")
		return
	}
	response.NoContent(c)
}

// CancelFriendRequest handles DELETE /api/v1/friend-requests/:user_id.
func (h *Handler) CancelFriendRequest(c *gin.Context) {
	actorID, recipientID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Friend.CancelFriendRequest(c.Request.Context(), actorID, recipientID); err != nil {
		fail(c, err, "failed to cancel friend request")
		return
	}
	response.NoContent(c)
}

// Block handles POST /api/v1/users/:user_id/block.
func (h *Handler) Block(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Block.BlockUser(c.Request.Context(), actorID, targetID); err != nil {
		fail(c, err, "failed to block user")
		return
	}
	response.Created(c, gin.H{"blocked": true})
}

// Unblock handles DELETE /api/v1/users/:user_id/block.
func (h *Handler) Unblock(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	if err := h.svc.Block.UnblockUser(c.Request.Context(), actorID, targetID); err != nil {
		fail(c, err, "failed to unblock user")
		return
	}
	response.NoContent(c)
}

type ownerListFunc func(c *gin.Context, viewerID, ownerID string, req service.PageRequest) (*domain.EntryPage, error)

func (h *Handler) ownerList(c *gin.Context, list ownerListFunc, msg string) {
	viewerID, ownerID, ok := pair(c)
	if !ok {
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := list(c, viewerID, ownerID, req)
	if err != nil {
		fail(c, err, msg)
		return
	}
	response.Paginated(c, page.Items, page.NextCursor)
}

// ListFollowers handles GET /api/v1/users/:user_id/followers.
func (h *Handler) ListFollowers(c *gin.Context) {
	h.ownerList(c, func(c *gin.Context, viewerID, ownerID string, req service.PageRequest) (*domain.EntryPage, error) {
		return h.svc.Lists.ListFollowers(c.Request.Context(), viewerID, ownerID, req)
	}, "failed to list followers")
}

// ListFollowing handles GET /api/v1/users/:user_id/following.
func (h *Handler) ListFollowing(c *gin.Context) {
	h.ownerList(c, func(c *gin.Context, viewerID, ownerID string, req service.PageRequest) (*domain.EntryPage, error) {
		return h.svc.Lists.ListFollowing(c.Request.Context(), viewerID, ownerID, req)
	}, "failed to list following")
}

// ListFriends handles GET /api/v1/users/:user_id/friends.
func (h *Handler) ListFriends(c *gin.Context) {
	h.ownerList(c, func(c *gin.Context, viewerID, ownerID string, req service.PageRequest) (*domain.EntryPage, error) {
		return h.svc.Lists.ListFriends(c.Request.Context(), viewerID, ownerID, req)
	}, "failed to list friends")
}

// ListFollowRequests handles GET /api/v1/me/follow-requests?direction=incoming|outgoing.
func (h *Handler) ListFollowRequests(c *gin.Context) {
	h.requestList(c, h.svc.Lists.ListFollowRequests, "failed to list follow requests")
}

// ListFriendRequests handles GET /api/v1/me/friend-requests?direction=incoming|outgoing.
func (h *Handler) ListFriendRequests(c *gin.Context) {
	h.requestList(c, h.svc.Lists.ListFriendRequests, "failed to list friend requests")
}

type requestListFunc func(ctx context.Context, userID string, dir domain.Direction, req service.PageRequest) (*domain.EntryPage, error)

func (h *Handler) requestList(c *gin.Context, list requestListFunc, msg string) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	dir, err := domain.ParseDirection(c.Query("direction"))
	if err != nil {
		fail(c, err, msg)
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := list(c.Request.Context(), userID, dir, req)
	if err != nil {
		fail(c, err, msg)
		return
	}
	response.Paginated(c, page.Items, page.NextCursor)
}

// ListBlocked handles GET /api/v1/me/blocked.
func (h *Handler) ListBlocked(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	req, ok := pageRequest(c)
	if !ok {
		return
	}

	page, err := h.svc.Lists.ListBlocked(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "failed to list blocked users")
		return
	}
	response.Paginated(c, page.Items, page.NextCursor)
}

// GetCounts handles GET /api/v1/users/:user_id/counts.
func (h *Handler) GetCounts(c *gin.Context) {
	_, targetID, ok := pair(c)
	if !ok {
		return
	}

	counts, err := h.svc.Counts.GetCounts(c.Request.Context(), targetID)
	if err != nil {
		fail(c, err, "failed to get counts")
		return
	}
	response.Success(c, counts)
}

// GetRelationship handles GET /api/v1/users/:user_id/relationship.
func (h *Handler) GetRelationship(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	status, err := h.svc.Lists.RelationStatus(c.Request.Context(), actorID, targetID)
	if err != nil {
		fail(c, err, "failed to get relationship status")
		return
	}
	response.Success(c, status)
}

// GetProfile handles GET /api/v1/users/:user_id/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	actorID, targetID, ok := pair(c)
	if !ok {
		return
	}

	view, err := h.svc.Profiles.GetProfile(c.Request.Context(), actorID, targetID)
	if err != nil {
		fail(c, err, "failed to get profile")
		return
	}
	response.Success(c, view)
}

// updateProfileRequest is the request body for PUT /api/v1/me/profile.
type updateProfileRequest struct {
	Username          string `json:"username" binding:"required,max=64"`
	DisplayName       string `json:"display_name" binding:"max=128"`
	IsPrivate         bool   `json:"is_private"`
	ProfilePictureKey string `json:"profile_picture_key" binding:"max=512"`
}

// UpdateProfile handles PUT /api/v1/me/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update profile request")
		response.BadRequest(c, err.Error())
		return
	}

	err := h.svc.Profiles.UpsertProfile(ctx, domain.Profile{
		ID:                userID,
		Username:          req.Username,
		DisplayName:       req.DisplayName,
		IsPrivate:         req.IsPrivate,
		ProfilePictureKey: req.ProfilePictureKey,
	})
	if err != nil {
		fail(c, err, "failed to update profile")
		return
	}
	response.NoContent(c)
}

// updatePrivacyRequest is the request body for PUT /api/v1/me/privacy.
type updatePrivacyRequest struct {
	IsPrivate *bool `json:"is_private" binding:"required"`
}

// UpdatePrivacy handles PUT /api/v1/me/privacy.
func (h *Handler) UpdatePrivacy(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req updatePrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update privacy request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Profiles.SetPrivacy(ctx, userID, *req.IsPrivate); err != nil {
		fail(c, err, "failed to update privacy")
		return
	}
	response.NoContent(c)
}
