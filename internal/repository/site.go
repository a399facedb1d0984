package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/model"
)

var (
	ErrSiteNotFound = errors.New("site not found")
	ErrSlugTaken    = errors.New("site slug already taken")
)

func (r *Repository) GetSiteByUserID(ctx context.Context, userID uuid.UUID) (*model.Site, error) {
	var site model.Site
	err := r.db.GetContext(ctx, &site, "SELECT * FROM sites WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (r *Repository) GetSiteBySlug(ctx context.Context, slug string) (*model.Site, error) {
	var site model.Site
	err := r.db.GetContext(ctx, &site, "SELECT * FROM sites WHERE slug = $1", slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (r *Repository) CreateSite(ctx context.Context, site *model.Site) error {
	query := `
		INSERT INTO sites (user_id, slug, niche, title, draft_blocks, published_blocks)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		site.UserID,
		site.Slug,
		site.Niche,
		site.Title,
		site.DraftBlocks,
		site.PublishedBlocks,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

// UpdateSiteDraft stores the niche, title and draft blocks without touching the
// published copy.
func (r *Repository) UpdateSiteDraft(ctx context.Context, site *model.Site) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE sites SET niche = $2, title = $3, draft_blocks = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		site.ID, site.Niche, site.Title, site.DraftBlocks,
	).Scan(&site.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSiteNotFound
	}
	return err
}

// PublishSite copies the draft blocks over the published ones.
func (r *Repository) PublishSite(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var site model.Site
	err := r.db.GetContext(ctx, &site, `
		UPDATE sites SET published_blocks = draft_blocks, published_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING *`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return &site, nil
}
