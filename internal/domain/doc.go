// Package domain defines the core business entities of the study engine.
package domain
