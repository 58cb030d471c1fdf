// Package permissions holds the role permission table. Every check is a
// pure function of the role string so services stay free of policy state.
package permissions

import "backoffice/internal/models"

// CanAccessBranch reports whether a user may operate on targetBranch.
// Admins reach every branch, everyone else only their own.
func CanAccessBranch(role, userBranch, targetBranch string) bool {
	if role == models.RoleAdmin {
		return true
	}
	return userBranch != "" && userBranch == targetBranch
}

// CanJoinChat reports whether a user may join an existing chat as an
// extra participant. Reserved for admins and shift managers.
func CanJoinChat(role string) bool {
	return role == models.RoleAdmin || role == models.RoleManager
}

// CanRequestChat reports whether a user may ask for a cross-branch helper.
func CanRequestChat(role string) bool {
	return true
}

// CanManageUsers reports whether a user may create, update, list or
// delete login accounts.
func CanManageUsers(role string) bool {
	return role == models.RoleAdmin
}

// CanCreateUser reports whether a user may create an account scoped to
// targetBranch. Cashiers may provision accounts for their own branch.
func CanCreateUser(role, userBranch, targetBranch string) bool {
	if role == models.RoleAdmin {
		return true
	}
	if role == models.RoleCashier {
		return userBranch != "" && userBranch == targetBranch
	}
	return false
}

// CanCreateEmployee reports whether a user may create employee records
// for targetBranch.
func CanCreateEmployee(role, userBranch, targetBranch string) bool {
	if role == models.RoleAdmin {
		return true
	}
	if role == models.RoleCashier {
		return userBranch != "" && userBranch == targetBranch
	}
	return false
}

// CanManageEmployees reports whether a user may update, deactivate or
// delete employee records.
func CanManageEmployees(role string) bool {
	return role == models.RoleAdmin
}

// CanViewEmployees reports whether a user may list employee records.
func CanViewEmployees(role string) bool {
	return role == models.RoleAdmin || role == models.RoleCashier
}

// CanManageCatalog reports whether a user may add or deactivate catalog
// products.
func CanManageCatalog(role string) bool {
	return role == models.RoleAdmin
}

// CanViewLogs reports whether a user may read the audit log.
func CanViewLogs(role string) bool {
	return role != models.RoleCashier
}

// CanViewAllBranches reports whether inventory listings should aggregate
// over every branch instead of the user's own.
func CanViewAllBranches(role string) bool {
	return role == models.RoleAdmin
}
