// Package apidoc describes the HTTP surface as an OpenAPI 3 document.
package apidoc

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/brizzai/oauth-login/internal/auth"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

func errorResponse(description string) *openapi3.ResponseRef {
	schema := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("error_description", openapi3.NewStringSchema())
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema)}
}

func redirectResponse(description string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description)}
}

func providerParam(providerName string) *openapi3.ParameterRef {
	schema := openapi3.NewStringSchema()
	schema.Enum = []interface{}{providerName}
	return &openapi3.ParameterRef{Value: openapi3.NewPathParameter("provider").WithSchema(schema)}
}

func queryParam(name, description string) *openapi3.ParameterRef {
	p := openapi3.NewQueryParameter(name).WithSchema(openapi3.NewStringSchema())
	p.Description = description
	return &openapi3.ParameterRef{Value: p}
}

// New builds the document for a deployment serving providerName.
func New(providerName string) *openapi3.T {
	userSchema := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email")).
		WithProperty("username", openapi3.NewStringSchema()).
		WithProperty("provider_user_id", openapi3.NewStringSchema()).
		WithProperty("created_at", openapi3.NewDateTimeSchema())

	login := &openapi3.Operation{
		OperationID: "startLogin",
		Summary:     "Redirect the browser to the identity provider",
		Parameters:  openapi3.Parameters{providerParam(providerName)},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusFound, redirectResponse("Redirect to the provider authorization endpoint")),
			openapi3.WithStatus(http.StatusNotFound, errorResponse("Unknown provider")),
		),
	}

	callbackResponses := []openapi3.NewResponsesOption{
		openapi3.WithStatus(http.StatusFound, redirectResponse("Login succeeded, access_token and refresh_token cookies are set")),
		openapi3.WithStatus(http.StatusNotFound, errorResponse("Unknown provider")),
	}
	seen := map[int]bool{}
	for _, kind := range []auth.Kind{
		auth.KindProviderDenied,
		auth.KindInvalidRequest,
		auth.KindTokenExchangeFailed,
		auth.KindUpstreamTimeout,
		auth.KindUserStoreFailure,
	} {
		status := kind.HTTPStatus()
		if seen[status] {
			continue
		}
		seen[status] = true
		callbackResponses = append(callbackResponses, openapi3.WithStatus(status, errorResponse(http.StatusText(status))))
	}

	callback := &openapi3.Operation{
		OperationID: "completeLogin",
		Summary:     "Exchange the authorization code and start a session",
		Parameters: openapi3.Parameters{
			providerParam(providerName),
			queryParam("code", "Authorization code issued by the provider"),
			queryParam("error", "Error code when the user denied consent"),
			queryParam("error_description", "Human readable error from the provider"),
		},
		Responses: openapi3.NewResponses(callbackResponses...),
	}

	me := &openapi3.Operation{
		OperationID: "currentUser",
		Summary:     "Return the user behind the session cookie or bearer token",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("The local user").WithJSONSchema(userSchema),
			}),
			openapi3.WithStatus(http.StatusUnauthorized, errorResponse("Missing or invalid session")),
		),
	}

	health := &openapi3.Operation{
		OperationID: "health",
		Summary:     "Liveness probe",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Service is up").
					WithJSONSchema(openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema())),
			}),
		),
	}

	paths := openapi3.NewPaths()
	paths.Set("/oauth/{provider}", &openapi3.PathItem{Get: login})
	paths.Set("/oauth/{provider}/redirect", &openapi3.PathItem{Get: callback})
	paths.Set("/me", &openapi3.PathItem{Get: me})
	paths.Set("/healthz", &openapi3.PathItem{Get: health})

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "oauth-login",
			Version: config.Version(),
		},
		Paths: paths,
	}
}

// Handler serves the document as JSON. It is marshalled once.
func Handler(doc *openapi3.T) http.Handler {
	var (
		once sync.Once
		body []byte
		err  error
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { body, err = json.Marshal(doc) })
		if err != nil {
			logger.Error("Failed to encode OpenAPI document", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}
