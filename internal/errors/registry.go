package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (F100-F199)
	// ============================================

	"F100": {
		Category: CategoryConfig,
		Message:  "Invalid fsroute.json",
		Detail:   "The configuration file contains invalid JSON or YAML or an unknown structure.",
		DocURL:   "https://fsroute.dev/docs/errors/F100",
	},
	"F101": {
		Category: CategoryConfig,
		Message:  "Missing configuration",
		Detail:   "No fsroute.json or fsroute.yaml was found in this directory or any parent directory.",
		DocURL:   "https://fsroute.dev/docs/errors/F101",
	},
	"F102": {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The dev server port must be between 1 and 65535.",
		DocURL:   "https://fsroute.dev/docs/errors/F102",
	},
	"F103": {
		Category: CategoryConfig,
		Message:  "Invalid rendering mode",
		Detail:   "The default rendering mode must be one of ssr, ssg or spa.",
		DocURL:   "https://fsroute.dev/docs/errors/F103",
	},
	"F104": {
		Category: CategoryConfig,
		Message:  "Unknown platform",
		Detail:   "The platform must be one of web, server, native, ios or android.",
		DocURL:   "https://fsroute.dev/docs/errors/F104",
	},
	"F105": {
		Category: CategoryConfig,
		Message:  "Routes directory not found",
		Detail:   "The configured routes directory does not exist or is not a directory.",
		DocURL:   "https://fsroute.dev/docs/errors/F105",
	},
	"F106": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An FSROUTE_* environment variable could not be parsed.",
		DocURL:   "https://fsroute.dev/docs/errors/F106",
	},

	// ============================================
	// CLI Errors (F200-F299)
	// ============================================

	"F200": {
		Category: CategoryCLI,
		Message:  "Not an fsroute project",
		Detail:   "The current directory is not an fsroute project. Run this command from a directory with fsroute.json.",
		DocURL:   "https://fsroute.dev/docs/errors/F200",
	},
	"F201": {
		Category: CategoryCLI,
		Message:  "Dev server failed",
		Detail:   "The development server could not start or stopped unexpectedly.",
		DocURL:   "https://fsroute.dev/docs/errors/F201",
	},
	"F202": {
		Category: CategoryCLI,
		Message:  "Manifest publish failed",
		Detail:   "The routes manifest could not be written to its destination.",
		DocURL:   "https://fsroute.dev/docs/errors/F202",
	},
	"F203": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or invalid arguments.",
		DocURL:   "https://fsroute.dev/docs/errors/F203",
	},

	// ============================================
	// Route Errors (F300-F399)
	// ============================================

	"F300": {
		Category: CategoryRoutes,
		Message:  "Route tree is invalid",
		Detail:   "One or more route files are invalid. The previous routes stay active until every problem is fixed.",
		DocURL:   "https://fsroute.dev/docs/errors/F300",
	},
	"F301": {
		Category: CategoryRoutes,
		Message:  "Invalid route file name",
		Detail:   "A route file or folder name does not follow the routing grammar.",
		DocURL:   "https://fsroute.dev/docs/errors/F301",
	},
	"F302": {
		Category: CategoryRoutes,
		Message:  "Conflicting routes",
		Detail:   "Two route files resolve to the same URL pattern for the same role and platform.",
		DocURL:   "https://fsroute.dev/docs/errors/F302",
	},
	"F303": {
		Category: CategoryRoutes,
		Message:  "No route matched",
		Detail:   "The path does not match any route and no +not-found file covers it.",
		DocURL:   "https://fsroute.dev/docs/errors/F303",
	},
	"F304": {
		Category: CategoryRoutes,
		Message:  "Scan failed",
		Detail:   "The routes directory could not be read.",
		DocURL:   "https://fsroute.dev/docs/errors/F304",
	},
}
