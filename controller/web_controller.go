package controller

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github/itish2003/pdfquery/models"
	"github/itish2003/pdfquery/services"
)

// WebController serves the upload/query page and its JSON API. Every page
// load gets its own session, and with it its own upload gate.
type WebController struct {
	sessions *services.SessionStore
	logger   logrus.FieldLogger
	version  string
}

// NewWebController creates a WebController backed by sessions.
func NewWebController(sessions *services.SessionStore, logger logrus.FieldLogger, version string) *WebController {
	return &WebController{
		sessions: sessions,
		logger:   logger,
		version:  version,
	}
}

// Health is the handler for GET /health.
func (c *WebController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: "pdfquery",
		Version: c.version,
	})
}

// Index renders the page for a brand-new session. Reloading the page
// therefore always starts with the query controls disabled.
func (c *WebController) Index(ctx *gin.Context) {
	sess := c.sessions.Create()
	c.render(ctx, sess)
}

// Page renders an existing session. The upload and query forms redirect
// here, so reloading the page never re-sends a form.
func (c *WebController) Page(ctx *gin.Context) {
	sess, ok := c.sessions.Get(ctx.Param("id"))
	if !ok {
		ctx.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.render(ctx, sess)
}

// PageUpload handles the upload form of the page.
func (c *WebController) PageUpload(ctx *gin.Context) {
	sess, ok := c.sessions.Get(ctx.Param("id"))
	if !ok {
		ctx.Redirect(http.StatusSeeOther, "/")
		return
	}

	file, err := formFile(ctx)
	if err != nil {
		ctx.String(http.StatusBadRequest, "Invalid upload: %v", err)
		return
	}

	// The gate reports the outcome through the session view.
	_ = sess.Gate.Upload(detached(ctx), file)
	redirectToPage(ctx, sess)
}

// PageQuery handles the query form of the page.
func (c *WebController) PageQuery(ctx *gin.Context) {
	sess, ok := c.sessions.Get(ctx.Param("id"))
	if !ok {
		ctx.Redirect(http.StatusSeeOther, "/")
		return
	}

	_ = sess.Gate.Query(detached(ctx), ctx.PostForm("question"))
	redirectToPage(ctx, sess)
}

func (c *WebController) render(ctx *gin.Context, sess *services.Session) {
	ctx.HTML(http.StatusOK, "index.html", sess.Snapshot())
}

func redirectToPage(ctx *gin.Context, sess *services.Session) {
	ctx.Redirect(http.StatusSeeOther, "/sessions/"+sess.ID)
}

// CreateSession is the handler for POST /api/v1/sessions.
func (c *WebController) CreateSession(ctx *gin.Context) {
	sess := c.sessions.Create()
	ctx.JSON(http.StatusCreated, sess.Snapshot())
}

// GetSession is the handler for GET /api/v1/sessions/:id.
func (c *WebController) GetSession(ctx *gin.Context) {
	sess, ok := c.lookup(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, sess.Snapshot())
}

// DeleteSession is the handler for DELETE /api/v1/sessions/:id.
func (c *WebController) DeleteSession(ctx *gin.Context) {
	if !c.sessions.Delete(ctx.Param("id")) {
		ctx.JSON(http.StatusNotFound, sessionNotFound(ctx.Param("id")))
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UploadPDF is the handler for POST /api/v1/sessions/:id/upload.
func (c *WebController) UploadPDF(ctx *gin.Context) {
	sess, ok := c.lookup(ctx)
	if !ok {
		return
	}

	file, err := formFile(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "BAD_REQUEST",
			Message: "Invalid multipart body",
			Details: err.Error(),
		})
		return
	}

	if err := sess.Gate.Upload(detached(ctx), file); err != nil {
		sess.View.TakeNotice()
		ctx.JSON(errorStatus(err), errorBody(err))
		return
	}
	ctx.JSON(http.StatusOK, sess.Snapshot())
}

// Query is the handler for POST /api/v1/sessions/:id/query.
func (c *WebController) Query(ctx *gin.Context) {
	sess, ok := c.lookup(ctx)
	if !ok {
		return
	}

	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    "BAD_REQUEST",
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := sess.Gate.Query(detached(ctx), req.Question); err != nil {
		sess.View.TakeNotice()
		ctx.JSON(errorStatus(err), errorBody(err))
		return
	}
	ctx.JSON(http.StatusOK, sess.Snapshot())
}

func (c *WebController) lookup(ctx *gin.Context) (*services.Session, bool) {
	id := ctx.Param("id")
	sess, ok := c.sessions.Get(id)
	if !ok {
		c.logger.WithField("session", id).Debug("CONTROLLER: Unknown session")
		ctx.JSON(http.StatusNotFound, sessionNotFound(id))
		return nil, false
	}
	return sess, true
}

// formFile returns the "file" part of a multipart request, or nil when the
// form carries no file.
func formFile(ctx *gin.Context) (*models.FileSelection, error) {
	header, err := ctx.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fileSelection(header), nil
}

func fileSelection(header *multipart.FileHeader) *models.FileSelection {
	return &models.FileSelection{
		Name: header.Filename,
		Size: header.Size,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	}
}

// detached keeps the request values but drops its cancellation: an upload
// or query is never abandoned because the browser went away.
func detached(ctx *gin.Context) context.Context {
	return context.WithoutCancel(ctx.Request.Context())
}

func errorStatus(err error) int {
	var opErr *services.OperationError
	switch {
	case errors.Is(err, services.ErrNoFileSelected), errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUploadRequired):
		return http.StatusConflict
	case errors.As(err, &opErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) models.ErrorResponse {
	var opErr *services.OperationError
	switch {
	case errors.Is(err, services.ErrNoFileSelected):
		return models.ErrorResponse{Code: "NO_FILE_SELECTED", Message: "Please select a file"}
	case errors.Is(err, services.ErrUploadRequired):
		return models.ErrorResponse{Code: "UPLOAD_REQUIRED", Message: "Please upload a file before submitting a query."}
	case errors.Is(err, services.ErrEmptyQuery):
		return models.ErrorResponse{Code: "EMPTY_QUERY", Message: "Please enter a query"}
	case errors.As(err, &opErr) && opErr.Op == services.OpUpload:
		return models.ErrorResponse{Code: "UPLOAD_FAILED", Message: opErr.Error(), Details: opErr.Err.Error()}
	case errors.As(err, &opErr):
		return models.ErrorResponse{Code: "QUERY_FAILED", Message: opErr.Error(), Details: opErr.Err.Error()}
	default:
		return models.ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
}

func sessionNotFound(id string) models.ErrorResponse {
	return models.ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "session not found: " + id}
}
