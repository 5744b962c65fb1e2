package errors

// Template defines a registered diagnostic.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Route Errors (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryRoute,
		Message:    "Duplicate route pattern",
		Detail:     "Two routes normalize to the same pattern. A trailing slash does not make patterns distinct.",
		Suggestion: "Remove one of the routes or change its pattern",
	},
	"R002": {
		Category:   CategoryRoute,
		Message:    "Parameter name conflict",
		Detail:     "Two routes use different parameter names at the same position, e.g. /users/:id and /users/:name/posts.",
		Suggestion: "Use the same parameter name at the same position in every route",
	},
	"R003": {
		Category:   CategoryRoute,
		Message:    "Wildcard must be the last segment",
		Detail:     "A wildcard (*, *name or :name*) consumes the rest of the path, so nothing may follow it.",
		Suggestion: "Move the wildcard to the end of the pattern",
	},
	"R004": {
		Category:   CategoryRoute,
		Message:    "Route conflict",
		Detail:     "The route reuses an ID or occupies the same slot as another route, e.g. /files/* and /files/:rest*.",
		Suggestion: "Give every route a unique ID and a structurally distinct pattern",
	},
	"R005": {
		Category:   CategoryRoute,
		Message:    "Invalid route pattern",
		Detail:     "Patterns start with / and parameter names are not empty.",
		Suggestion: "Write the pattern as an absolute path such as /users/:id",
	},
	"R006": {
		Category:   CategoryRoute,
		Message:    "Route has no handler",
		Detail:     "The route does not reference a module, or the module serves no method.",
		Suggestion: "Set the route's handler in the manifest to a registered handler name",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create dispatch.json or pass --config",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that dispatch.json is valid JSON",
	},
	"C003": {
		Category:   CategoryConfig,
		Message:    "Invalid environment override",
		Detail:     "A DISPATCH_* environment variable could not be parsed.",
		Suggestion: "Check the value types of your DISPATCH_* variables",
	},
	"C004": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Manifest Errors (M001-M099)
	// ============================================

	"M001": {
		Category:   CategoryManifest,
		Message:    "Route manifest not found",
		Suggestion: "Set routes.manifest in dispatch.json or pass --manifest",
	},
	"M002": {
		Category:   CategoryManifest,
		Message:    "Invalid route manifest",
		Detail:     "The manifest is a JSON object with a routes array.",
		Suggestion: "Check that the manifest is valid JSON",
	},

	// ============================================
	// CLI Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
