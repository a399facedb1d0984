package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

type AdminRepository interface {
	AuditStore
	SettingsStore
}

type AdminService struct {
	repo        AdminRepository
	withdrawals *WithdrawalService
	logger      *zap.Logger
}

func NewAdminService(repo AdminRepository, withdrawals *WithdrawalService, logger *zap.Logger) *AdminService {
	return &AdminService{repo: repo, withdrawals: withdrawals, logger: logger}
}

func (s *AdminService) ListAuditLogs(ctx context.Context, page, pageSize int) ([]model.AuditLog, error) {
	page, pageSize = normalizePage(page, pageSize)
	logs, err := s.repo.ListAuditLogs(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

// GetSettings returns stored settings with effective policy values filled in.
func (s *AdminService) GetSettings(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.GetAllSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings[repository.SettingWithdrawalMinAmount] = s.withdrawals.MinimumAmount(ctx).StringFixed(2)
	return settings, nil
}
