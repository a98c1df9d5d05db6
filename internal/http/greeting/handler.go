// Package greeting serves the fixed greeting on GET /.
package greeting

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/greeting-service/internal/platform/logging"
)

// Register wires GET / into api. The handler ignores the request entirely and
// returns text unchanged on every call.
func Register(api huma.API, text string) {
	body := []byte(text)

	huma.Register(api, huma.Operation{
		OperationID: "get-greeting",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Return the greeting",
		Description: "Always answers 200 with the configured greeting as plain text.",
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Greeting",
				Content: map[string]*huma.MediaType{
					"text/plain": {Schema: &huma.Schema{Type: huma.TypeString, Examples: []any{text}}},
				},
			},
		},
	}, func(ctx context.Context, _ *struct{}) (*GetOutput, error) {
		applog.LoggerFromContext(ctx).Debug("greeting served", zap.Int("bytes", len(body)))
		return &GetOutput{ContentType: ContentType, Body: body}, nil
	})
}
