// Package task runs the application's scheduled background jobs: closing out
// stale study sessions and enriching vocabulary words with generated example
// sentences. Jobs run on fixed intervals and never block HTTP request
// handling.
package task
