package auth

import "github.com/cozyhive/backend-pos/internal/store"

// CanManageCatalog reports whether the role may create, edit, or delete
// catalog items and change settings.
func CanManageCatalog(role string) bool {
	return role == store.RoleAdmin
}

// CanViewSummary reports whether the role may read daily summaries and
// export reports.
func CanViewSummary(role string) bool {
	return role == store.RoleAdmin
}

// CanOperateSessions reports whether the role may start, edit, and check out
// customer sessions. Both staff roles run the floor.
func CanOperateSessions(role string) bool {
	return role == store.RoleAdmin || role == store.RoleCashier
}
