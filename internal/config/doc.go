// Package config provides centralized configuration management for certaudit.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a .env file
//	2. A YAML file (certaudit.yaml, configs/certaudit.yaml or CERTAUDIT_CONFIG)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables are namespaced with CERTAUDIT and the section name:
//
//	CERTAUDIT_SERVER_PORT=8080
//	CERTAUDIT_AUDIT_THRESHOLD=70
//	CERTAUDIT_AUDIT_REFERENCE_DATE=15/02/2024
//	CERTAUDIT_SOURCE_TOKEN=...
//	CERTAUDIT_SOURCE_FOLDERS=101,102
//	CERTAUDIT_STORE_DSN=postgres://...
//
// # Validation
//
// Validate runs the struct tags through go-playground/validator. Load fails
// on the first invalid value.
package config
