package domain

import "github.com/google/uuid"

// TenantRecord is one restaurant's entry in the central directory.
type TenantRecord struct {
	ID            uuid.UUID `json:"id"`
	DisplayName   string    `json:"display_name"`
	DataEndpoint  string    `json:"data_endpoint"`
	DataAccessKey string    `json:"-"` // Never leaves the process
}

// TenantConnection is a live handle to one tenant's data endpoint.
// Callers compare handles by pointer; the owning ConnectionProvider decides
// when a new handle is built.
type TenantConnection struct {
	Endpoint string
	Store    TenantStore
	Images   ImageResolver
}
