// Package postgres implements the internal/store interfaces on PostgreSQL:
// SQL statements, row scanning, and the translation of driver errors into the
// store package's sentinel errors.
package postgres
