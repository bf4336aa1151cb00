// Package sanitizer normalizes booking input before validation and storage.
//
// All functions are idempotent and never fail: bad input comes back trimmed
// or empty, and presence checks are left to the validator.
package sanitizer
