package auth

import "github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"

type Permission string

const (
	PermEditSite           Permission = "site:edit"
	PermMakePayment        Permission = "payment:create"
	PermRequestWithdrawal  Permission = "withdrawal:request"
	PermViewAffiliateStats Permission = "affiliate:stats"
	PermManageWithdrawals  Permission = "withdrawal:manage"
	PermManagePayments     Permission = "payment:manage"
	PermManageCommissions  Permission = "commission:manage"
	PermManageUsers        Permission = "user:manage"
	PermViewAuditLogs      Permission = "audit:view"
	PermManageSettings     Permission = "settings:manage"
)

var rolePermissions = map[model.Role][]Permission{
	model.RoleClient: {
		PermEditSite,
		PermMakePayment,
	},
	model.RoleAffiliate: {
		PermEditSite,
		PermMakePayment,
		PermRequestWithdrawal,
		PermViewAffiliateStats,
	},
	model.RoleAdmin: {
		PermEditSite,
		PermMakePayment,
		PermManageWithdrawals,
		PermManagePayments,
		PermManageCommissions,
		PermManageUsers,
		PermViewAuditLogs,
		PermManageSettings,
	},
}

// Allow is the single authorization decision point for role-gated actions.
func Allow(role model.Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
