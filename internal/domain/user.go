package domain

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
)

// Principal is the acting user as supplied by the identity provider.
type Principal struct {
	ID   int64
	Role UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owns reports whether p is the owner of r.
func (p Principal) Owns(r *Reservation) bool {
	return r != nil && p.ID != 0 && p.ID == r.UserID
}
