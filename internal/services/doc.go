// Package services implements the business logic layer of the dashboard.
// It provides a clean separation between HTTP handlers and data access,
// ensuring that business rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- DashboardService: Answers dataset, trend, correlation, and impact queries
//	- HealthService: Provides system health checks
//
// DashboardService loads observations through the dataset loader's file
// cache, validates region selections, and delegates the numeric work to
// the analytics package. Each query records execution metrics through
// the infrastructure package.
//
// # Error Handling
//
// Services return sentinel errors that handlers map to RFC 7807 problem
// responses:
//
//	- ErrDatasetNotLoaded when the source CSV cannot be read or parsed
//	- ErrEmptySelection when a request names zero regions explicitly
//	- ErrUnknownRegion when a requested region is not in the dataset
//	- ErrNoObservations when a filter leaves nothing to analyze
//
// # Testing
//
// Services are tested against real CSV fixtures written to temporary
// directories, with stubbed collaborators where a network or socket
// dependency would otherwise be required.
package services
