package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/service"
)

type Handler struct {
	userSvc       *service.UserService
	affiliateSvc  *service.AffiliateService
	withdrawalSvc *service.WithdrawalService
	paymentSvc    *service.PaymentService
	siteSvc       *service.SiteService
	notifySvc     *service.NotificationService
	logger        *zap.Logger
}

func New(
	userSvc *service.UserService,
	affiliateSvc *service.AffiliateService,
	withdrawalSvc *service.WithdrawalService,
	paymentSvc *service.PaymentService,
	siteSvc *service.SiteService,
	notifySvc *service.NotificationService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userSvc:       userSvc,
		affiliateSvc:  affiliateSvc,
		withdrawalSvc: withdrawalSvc,
		paymentSvc:    paymentSvc,
		siteSvc:       siteSvc,
		notifySvc:     notifySvc,
		logger:        logger,
	}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// pageParams reads ?page=&pageSize=; the services clamp the values.
func pageParams(c *fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("pageSize", "0"))
	return page, pageSize
}
