// Package validation checks input files and request payloads before any
// work starts on them.
package validation
