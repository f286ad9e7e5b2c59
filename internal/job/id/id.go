// Package id provides unique identifier generation for jobs.
package id

import "github.com/google/uuid"

// Generate creates a new unique job ID.
// Example: 9f8b2c4e-1a6d-4f3b-9c7e-2d5a8b1c4e6f
func Generate() string {
	return uuid.NewString()
}
