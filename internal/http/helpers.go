package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/maintenance"
	"github.com/mrlokans/librarydesk/internal/services"
	"github.com/mrlokans/librarydesk/internal/session"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error kind
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- JSON Error Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError maps an operation-layer error to a JSON response.
func respondServiceError(c *gin.Context, err error, context string) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: string(services.KindNotFound)})
	case services.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(services.KindValidation)})
	case services.KindPrecondition:
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: string(services.KindPrecondition)})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts a positive ID from the URL path. On failure it
// responds 404, since no record can have that ID, and returns false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		c.String(http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

// parseAPIIDParam is parseIDParam for JSON endpoints.
func parseAPIIDParam(c *gin.Context, paramName, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondNotFound(c, resource)
		return 0, false
	}
	return uint(id), true
}

// --- HTML Pages ---

// pages renders HTML templates with the data every layout needs and queues
// flash notices across redirects.
type pages struct {
	sessions *session.Manager
}

func (p pages) flash(c *gin.Context, kind, message string) {
	if p.sessions != nil {
		p.sessions.Flash(c, kind, message)
	}
}

// render writes the named template. Notices passed in are shown on this
// page, after any queued by an earlier redirect.
func (p pages) render(c *gin.Context, status int, name string, data gin.H, notices ...session.Flash) {
	var flashes []session.Flash
	if p.sessions != nil {
		flashes = p.sessions.PopFlashes(c)
	}
	data["Flashes"] = append(flashes, notices...)
	data[session.CSRFTemplateField] = session.CSRFTokenField(c)
	data["ReadOnly"] = c.GetBool(maintenance.ContextKeyReadOnly)
	c.HTML(status, name, data)
}

// redirect queues a notice and sends the browser to location.
func (p pages) redirect(c *gin.Context, location, kind, message string) {
	p.flash(c, kind, message)
	c.Redirect(http.StatusSeeOther, location)
}

// internalError logs err and answers with a plain 500 page.
func (p pages) internalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
}

func errorNotice(err error) session.Flash {
	return session.Flash{Kind: session.FlashError, Message: err.Error()}
}
