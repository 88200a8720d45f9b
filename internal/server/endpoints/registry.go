package endpoints

import (
	"github.com/jackzampolin/courseforge/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Course generation
		&GenerateCourseEndpoint{},

		// Prompt endpoints
		&ListPromptsEndpoint{},
		&GetPromptEndpoint{},

		// Metrics endpoints
		&ListMetricsEndpoint{},
		&MetricsSummaryEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}

// TopLevelCommands returns the endpoints whose CLI twins sit directly under
// "api" rather than in a group.
func TopLevelCommands() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},
		&GenerateCourseEndpoint{},
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
