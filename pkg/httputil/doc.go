// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteInternalError(w)
//
// # Request Parsing
//
//	var req CheckRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Guards that need to look at the body use the non-consuming helpers, so
// the handler still sees the full body:
//
//	tenant, source, err := httputil.FirstValue(r, "tenantId") // route, body, query
//	role, ok, err := httputil.BodyField(r, "newRole")
//
// # Middleware
//
//	router.Use(httputil.RequestIDMiddleware)
//	router.Use(httputil.CORSMiddleware([]string{"https://app.example.com"}))
//
// # Related Packages
//
//   - pkg/middleware: Authentication and authorization middleware
package httputil
