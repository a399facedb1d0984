package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

const slugAttempts = 5

type SiteRepository interface {
	UserStore
	SiteStore
}

type SiteService struct {
	repo   SiteRepository
	logger *zap.Logger
}

func NewSiteService(repo SiteRepository, logger *zap.Logger) *SiteService {
	return &SiteService{repo: repo, logger: logger}
}

// GetOrCreate returns the user's site, creating an empty draft on first use.
func (s *SiteService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.Site, error) {
	site, err := s.repo.GetSiteByUserID(ctx, userID)
	if err == nil {
		return site, nil
	}
	if !errors.Is(err, repository.ErrSiteNotFound) {
		return nil, err
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := 0; i < slugAttempts; i++ {
		suffix := make([]byte, 3)
		if _, err := rand.Read(suffix); err != nil {
			return nil, err
		}
		site = &model.Site{
			UserID:          userID,
			Slug:            slugify(user.Name) + "-" + hex.EncodeToString(suffix),
			Niche:           model.NicheGeneral,
			Title:           user.Name,
			DraftBlocks:     model.Blocks{},
			PublishedBlocks: model.Blocks{},
		}
		err = s.repo.CreateSite(ctx, site)
		if errors.Is(err, repository.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("site created", zap.String("user_id", userID.String()), zap.String("slug", site.Slug))
		return site, nil
	}
	return nil, repository.ErrSlugTaken
}

// SelectNiche sets the template niche and seeds default blocks into an empty draft.
func (s *SiteService) SelectNiche(ctx context.Context, userID uuid.UUID, niche model.Niche) (*model.Site, error) {
	if !niche.Valid() {
		return nil, ErrInvalidNiche
	}
	site, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	site.Niche = niche
	if len(site.DraftBlocks) == 0 {
		site.DraftBlocks = DefaultBlocks(niche, site.Title)
	}
	if err := s.repo.UpdateSiteDraft(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// SaveDraft replaces the draft blocks. The published copy is untouched.
func (s *SiteService) SaveDraft(ctx context.Context, userID uuid.UUID, title *string, blocks model.Blocks) (*model.Site, error) {
	for i := range blocks {
		if !blocks[i].Type.Valid() {
			return nil, ErrInvalidBlock
		}
		if blocks[i].ID == "" {
			blocks[i].ID = uuid.NewString()
		}
		if blocks[i].Data == nil {
			blocks[i].Data = map[string]interface{}{}
		}
	}

	site, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if title != nil {
		site.Title = strings.TrimSpace(*title)
	}
	site.DraftBlocks = blocks
	if site.DraftBlocks == nil {
		site.DraftBlocks = model.Blocks{}
	}
	if err := s.repo.UpdateSiteDraft(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// Publish copies the draft to the public site. Only paying users may publish.
func (s *SiteService) Publish(ctx context.Context, userID uuid.UUID) (*model.Site, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPaid {
		return nil, ErrPaymentRequired
	}

	site, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(site.DraftBlocks) == 0 {
		return nil, ErrEmptyDraft
	}

	published, err := s.repo.PublishSite(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("site published", zap.String("user_id", userID.String()), zap.String("slug", published.Slug))
	return published, nil
}

func (s *SiteService) GetPublished(ctx context.Context, slug string) (*model.PublicSite, error) {
	site, err := s.repo.GetSiteBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if site.PublishedAt == nil {
		return nil, repository.ErrSiteNotFound
	}
	return &model.PublicSite{
		Slug:        site.Slug,
		Title:       site.Title,
		Niche:       site.Niche,
		Blocks:      site.PublishedBlocks,
		PublishedAt: *site.PublishedAt,
	}, nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	if slug == "" {
		slug = "site"
	}
	return slug
}
