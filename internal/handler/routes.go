package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/auth"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/middleware"
)

// Routes mounts every API route on app. Extra middleware (rate limiting) wraps
// the /api group.
func Routes(app *fiber.App, h *Handler, admin *AdminHandler, tokens *auth.TokenIssuer, users middleware.UserLookup, apiMiddleware ...fiber.Handler) {
	app.Get("/health", h.Health)

	// Public
	app.Get("/sites/:slug", h.PublicSite)
	app.Post("/webhook/:provider/:token", h.PaymentWebhook)

	api := app.Group("/api", apiMiddleware...)
	api.Post("/auth/register", h.Register)
	api.Post("/auth/login", h.Login)

	authed := api.Group("", middleware.RequireAuth(tokens))

	// User
	authed.Get("/user/me", h.GetMe)
	authed.Post("/user/role", h.UpdateRole)

	// Affiliate
	authed.Get("/affiliate/stats", h.GetAffiliateStats)
	authed.Get("/affiliate/balance", h.GetAffiliateBalance)
	authed.Get("/affiliate/transactions", h.GetBalanceTransactions)
	authed.Get("/affiliate/referrals", h.GetReferrals)
	authed.Get("/affiliate/referrals/:userId/commission", h.GetReferralCommission)
	authed.Post("/affiliate/withdraw", h.Withdraw)
	authed.Get("/affiliate/withdrawals", h.GetMyWithdrawals)
	authed.Put("/affiliate/payout-details", h.UpdatePayoutDetails)

	// Payments
	authed.Get("/payments", h.GetMyPayments)
	authed.Post("/payments/stk", h.InitiateSTKPush)
	authed.Post("/payments/manual", h.SubmitManualPayment)
	authed.Get("/payments/:id", h.GetPayment)

	// Site
	authed.Get("/site", h.GetSite)
	authed.Post("/site/niche", h.SelectNiche)
	authed.Put("/site/draft", h.SaveDraft)
	authed.Post("/site/publish", h.PublishSite)

	// Notifications
	authed.Get("/notifications", h.GetNotifications)
	authed.Post("/notifications/:id/read", h.MarkNotificationRead)

	// Admin
	adm := authed.Group("/admin")

	withdrawals := middleware.RequirePermission(users, auth.PermManageWithdrawals)
	adm.Get("/withdrawals", withdrawals, admin.ListWithdrawals)
	adm.Get("/withdrawals/list", withdrawals, admin.ListWithdrawals)
	adm.Post("/withdrawals", withdrawals, admin.ProcessWithdrawal)
	adm.Post("/withdrawals/approve", withdrawals, admin.ProcessWithdrawal)

	payments := middleware.RequirePermission(users, auth.PermManagePayments)
	adm.Get("/payments/pending", payments, admin.ListPendingPayments)
	adm.Post("/payments/:id/approve", payments, admin.ApprovePayment)
	adm.Post("/payments/:id/reject", payments, admin.RejectPayment)
	adm.Post("/payments/expire", payments, admin.ExpireStalePayments)

	commissions := middleware.RequirePermission(users, auth.PermManageCommissions)
	adm.Post("/commissions", commissions, admin.CreateCommission)
	adm.Post("/commissions/:id/paid", commissions, admin.MarkCommissionPaid)
	adm.Put("/users/:id/role", middleware.RequirePermission(users, auth.PermManageUsers), admin.UpdateUserRole)
	adm.Get("/audit-logs", middleware.RequirePermission(users, auth.PermViewAuditLogs), admin.GetAuditLogs)

	settings := middleware.RequirePermission(users, auth.PermManageSettings)
	adm.Get("/settings", settings, admin.GetSettings)
	adm.Post("/settings/withdrawal-minimum", settings, admin.SetWithdrawalMinimum)
}
