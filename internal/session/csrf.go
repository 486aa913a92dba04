package session

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const (
	// CSRFTemplateField is the template function that renders the hidden token input.
	CSRFTemplateField = "csrfField"

	csrfContextKey = "csrf_token"
	csrfFormField  = "gorilla.csrf.Token"
)

// CSRFMiddleware rejects state-changing requests without a valid token.
// Safe methods pass through and receive a token for their forms. A rejected
// form submission is sent back to the page it came from with a flash notice.
func (m *Manager) CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.FieldName(csrfFormField),
		csrf.ErrorHandler(http.HandlerFunc(m.csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func (m *Manager) csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
		return
	}

	if back := localReferer(r); back != "" {
		m.addFlash(r.Context(), Flash{Kind: FlashError, Message: "Session expired. Please try again."})
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Session Expired</title></head>
<body style="font-family: system-ui; max-width: 400px; margin: 100px auto; text-align: center;">
<h1>Session Expired</h1>
<p>Your session has expired or the form submission was invalid.</p>
<p><a href="/">Back to the dashboard</a></p>
</body>
</html>`))
}

// localReferer returns the path of the Referer header when it points back at
// this host, and "" otherwise.
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host {
		return ""
	}
	if !isLocalPath(ref.Path) {
		return ""
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func isLocalPath(path string) bool {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return false
	}
	return !strings.Contains(path, "://") && !strings.Contains(path, "\\")
}

// CSRFToken returns the token set by CSRFMiddleware, or "".
func CSRFToken(c *gin.Context) string {
	if token, ok := c.Get(csrfContextKey); ok {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// CSRFTokenField renders the hidden form input carrying the token.
func CSRFTokenField(c *gin.Context) template.HTML {
	token := CSRFToken(c)
	if token == "" {
		return ""
	}
	return template.HTML(`<input type="hidden" name="` + csrfFormField + `" value="` + template.HTMLEscapeString(token) + `">`)
}
