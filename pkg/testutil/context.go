package testutil

import (
	"net/http"

	id "realtyvest/pkg/domain"
	"realtyvest/pkg/requestcontext"
)

// WithUserID simulates the auth middleware for handler tests.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}
