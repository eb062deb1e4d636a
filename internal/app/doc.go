// Package app is the composition root of certaudit: it resolves paths,
// starts telemetry, opens the store and wires the services into the HTTP
// router.
package app
