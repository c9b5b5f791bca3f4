// Package service contains the application-specific use cases that sit between
// the API layer and the persistence interfaces in internal/store. Services
// receive their dependencies through constructor injection and never depend on
// specific infrastructure implementations.
//
// Study-session orchestration lives in internal/study; this package holds the
// remaining account-level services (user management, with authentication in
// the auth subpackage).
package service
