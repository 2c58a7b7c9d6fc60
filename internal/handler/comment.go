package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/repository"
)

// CommentHandler covers both sides of the comment workflow: customers
// leave comments on tours, admins moderate them.  New comments start
// pending and stay invisible publicly until approved.
type CommentHandler struct {
	Comments *repository.CommentRepo
	Tours    *repository.TourRepo
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(comments *repository.CommentRepo, tours *repository.TourRepo) *CommentHandler {
	if comments == nil || tours == nil {
		panic("nil repository passed to NewCommentHandler")
	}
	return &CommentHandler{Comments: comments, Tours: tours}
}

type createCommentReq struct {
	Rating *int   `json:"rating"`
	Body   string `json:"body"`
}

// Create handles POST /v1/tours/:slug/comments (authenticated).  The
// comment is queued for moderation.
func (h *CommentHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, err := h.Tours.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tour"})
	}
	var req createCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	comment := &model.Comment{
		UserID: userID,
		TourID: t.ID,
		Rating: req.Rating,
		Body:   req.Body,
	}
	if err := h.Comments.Create(c.Request().Context(), comment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create comment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":     comment.ID,
		"status": string(comment.Status),
	})
}

// ListForModeration handles GET /v1/admin/comments.  The optional
// status query parameter narrows to one moderation state; by default
// the pending queue is returned.
func (h *CommentHandler) ListForModeration(c echo.Context) error {
	var status *model.CommentStatus
	switch s := strings.TrimSpace(c.QueryParam("status")); s {
	case "":
		pending := model.CommentPending
		status = &pending
	case "all":
		status = nil
	default:
		cs := model.CommentStatus(s)
		if !cs.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status filter"})
		}
		status = &cs
	}
	items, err := h.Comments.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load comments"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type moderateReq struct {
	Reply *string `json:"reply"`
}

// Approve handles POST /v1/admin/comments/:id/approve.
func (h *CommentHandler) Approve(c echo.Context) error {
	return h.moderate(c, model.CommentApproved)
}

// Reject handles POST /v1/admin/comments/:id/reject.
func (h *CommentHandler) Reject(c echo.Context) error {
	return h.moderate(c, model.CommentRejected)
}

func (h *CommentHandler) moderate(c echo.Context, status model.CommentStatus) error {
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req moderateReq
	_ = c.Bind(&req)
	err := h.Comments.SetStatus(c.Request().Context(), commentID, status, req.Reply)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to moderate comment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": commentID, "status": string(status)})
}

// Delete handles DELETE /v1/admin/comments/:id.
func (h *CommentHandler) Delete(c echo.Context) error {
	commentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	err := h.Comments.Delete(c.Request().Context(), commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete comment"})
	}
	return c.NoContent(http.StatusNoContent)
}
