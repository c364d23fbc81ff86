package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/benx421/subscription-checkout/internal/api"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// OpenAPIValidator rejects requests that do not match the OpenAPI document
// with 400 invalid_request. Requests to paths the document does not describe
// pass through untouched, as do the listed skip paths.
func OpenAPIValidator(doc *openapi3.T, logger *slog.Logger, skipPaths ...string) (func(http.Handler) http.Handler, error) {
	// Servers would pin matching to a host; routes are matched on path alone.
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				message := describeValidationError(err)
				logger.Debug("request failed openapi validation",
					"method", r.Method,
					"path", r.URL.Path,
					"reason", message,
				)
				writeError(w, http.StatusBadRequest, api.ErrorCodeInvalidRequest, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func describeValidationError(err error) string {
	var reqErr *openapi3filter.RequestError
	if !errors.As(err, &reqErr) {
		return "request does not match the API contract"
	}

	detail := reqErr.Reason
	var schemaErr *openapi3.SchemaError
	if errors.As(reqErr.Err, &schemaErr) {
		detail = schemaErr.Reason
		if ptr := schemaErr.JSONPointer(); len(ptr) > 0 {
			detail = strings.Join(ptr, ".") + ": " + detail
		}
	} else if detail == "" && reqErr.Err != nil {
		detail = reqErr.Err.Error()
	}

	switch {
	case reqErr.Parameter != nil:
		return fmt.Sprintf("invalid %s parameter %s: %s", reqErr.Parameter.In, reqErr.Parameter.Name, detail)
	case reqErr.RequestBody != nil:
		return "invalid request body: " + detail
	default:
		return detail
	}
}
