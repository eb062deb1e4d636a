// Package services implements the use cases behind the CLI and the HTTP
// API: auditing folders, scoring suppliers and reporting health.
//
// Services receive their collaborators at construction and take a
// context.Context on every operation. Errors are returned as
// *errors.AppError or *errors.APIError so the transport layer can map
// them to problem details.
package services
