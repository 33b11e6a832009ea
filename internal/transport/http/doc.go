// Package http implements the HTTP request handlers for the dashboard
// API. It provides a thin layer between HTTP transport and business
// logic, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Loader
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Query Parameters
//
// The selection-scoped endpoints share regions/from/to/area query
// parameters, parsed into a validated FilterParams struct. A regions
// parameter that is present but empty is an explicit empty selection
// and yields a 422 problem with code EMPTY_SELECTION; an absent
// parameter means all regions.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/selection/empty",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "At least one region must be selected",
//	    "instance": "/api/trends/regions"
//	}
//
// # Testing
//
// Handlers are tested using httptest with a stubbed DashboardService.
package http
