// Package session carries per-browser state between page requests: flash
// notices shown after a redirect, and the CSRF token that guards every form.
//
// Middleware order matters. Manager.LoadSave must run before CSRFMiddleware so
// that a rejected form can leave a flash notice for the page it returns to.
package session
