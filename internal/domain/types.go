package domain

// ID is used across domain entities.
type ID int64

// Status represents a lightweight state value.
type Status string

// Roles known to the marketplace.
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the actor carries the admin role.
func (rc RequestContext) IsAdmin() bool {
	return rc.Role == RoleAdmin
}
