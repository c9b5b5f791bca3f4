// Package store defines the persistence interfaces consumed by the study
// engine, plus the transaction helper shared by all implementations.
package store
