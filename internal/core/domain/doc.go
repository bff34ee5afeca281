// Package domain contains the core business entities for docqa.
// These types have no dependencies on infrastructure and define the
// contracts used by services and adapters.
package domain
