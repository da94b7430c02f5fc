package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"messageboard-backend/internal/domains/post/feed"
	"messageboard-backend/internal/domains/post/model"
	"messageboard-backend/internal/domains/post/service"
	"messageboard-backend/internal/infrastructure/changefeed"
	"messageboard-backend/internal/shared/middleware"
	"messageboard-backend/internal/shared/response"
)

// PostHandler handles HTTP requests for the post domain.
type PostHandler struct {
	service service.PostService
	broker  changefeed.Broker
}

func NewPostHandler(svc service.PostService, broker changefeed.Broker) *PostHandler {
	return &PostHandler{service: svc, broker: broker}
}

// List handles GET /posts
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.service.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	if posts == nil {
		posts = []model.PostDTO{}
	}
	response.Success(c, http.StatusOK, posts)
}

// Create handles POST /posts. The body is multipart form data: a
// required "content" field and an optional "picture" file.
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}

	req := model.CreatePostRequest{Content: c.PostForm("content")}

	var attachment *service.Attachment
	fileHeader, err := c.FormFile("picture")
	switch {
	case err == nil:
		file, oerr := fileHeader.Open()
		if oerr != nil {
			response.BadRequest(c, "cannot read uploaded file")
			return
		}
		defer file.Close()
		attachment = &service.Attachment{
			Reader:      file,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
		}
	case errors.Is(err, http.ErrMissingFile):
		// text-only post
	default:
		response.BadRequest(c, "invalid multipart form")
		return
	}

	dto, err := h.service.Create(c.Request.Context(), userID, req, attachment)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/posts/"+dto.ID.String())
	response.Success(c, http.StatusCreated, dto)
}

// Delete handles DELETE /posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, postID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": postID})
}

// Stream handles GET /posts/stream. It holds an SSE connection open and
// pushes a full feed snapshot whenever any post mutates. Each connection
// owns exactly one change-feed subscription; closing the connection (the
// request context ending) tears it down.
func (h *PostHandler) Stream(c *gin.Context) {
	view, err := feed.Open(c.Request.Context(), h.broker, h.service)
	if err != nil {
		response.InternalServerError(c, "cannot open feed")
		return
	}
	defer view.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snap, ok := <-view.Snapshots()
		if !ok {
			return false
		}
		c.SSEvent("snapshot", snap)
		return true
	})
}

// handleError maps domain errors to HTTP status codes
func (h *PostHandler) handleError(c *gin.Context, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", verrs)
		return
	}

	switch {
	case errors.Is(err, model.ErrPostNotFound):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeNotFound, err.Error())
		return
	case errors.Is(err, model.ErrNotPostOwner):
		response.ErrorResponse(c, http.StatusForbidden, model.ErrCodeForbidden, err.Error())
		return
	}

	var perr *model.PostError
	if errors.As(err, &perr) {
		switch perr.Code {
		case model.ErrCodeAuth:
			response.Unauthorized(c, perr.Message)
		case model.ErrCodeStorage:
			// The row was written; only the object store failed.
			response.ErrorResponse(c, http.StatusBadGateway, perr.Code, perr.Message)
		default:
			response.ErrorResponse(c, http.StatusInternalServerError, perr.Code, perr.Message)
		}
		return
	}

	response.InternalServerError(c, err.Error())
}
