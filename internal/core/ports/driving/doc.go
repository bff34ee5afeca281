// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI and watch adapters depend on these;
// internal/core/services implements them.
package driving
