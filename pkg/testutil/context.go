package testutil

import (
	"net/http"

	id "roboreg/pkg/domain"
	"roboreg/pkg/requestcontext"
)

// AsOrganisation stamps the request context with an organisation identity,
// simulating what the bearer-token middleware does for authenticated requests.
func AsOrganisation(req *http.Request, orgID id.OrganisationID) *http.Request {
	return req.WithContext(requestcontext.WithOrganisationID(req.Context(), orgID))
}

// AsAdmin stamps the request context with an admin identity, simulating the
// admin-token middleware.
func AsAdmin(req *http.Request, adminID string) *http.Request {
	return req.WithContext(requestcontext.WithAdminID(req.Context(), adminID))
}

// WithRequestID stamps the request context with a fixed request ID so audit
// assertions can match on it.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
