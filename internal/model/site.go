package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockHero         BlockType = "hero"
	BlockAbout        BlockType = "about"
	BlockServices     BlockType = "services"
	BlockGallery      BlockType = "gallery"
	BlockTestimonials BlockType = "testimonials"
	BlockContact      BlockType = "contact"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockHero, BlockAbout, BlockServices, BlockGallery, BlockTestimonials, BlockContact:
		return true
	}
	return false
}

type Block struct {
	ID   string                 `json:"id"`
	Type BlockType              `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Blocks is stored as a jsonb array.
type Blocks []Block

func (b *Blocks) Scan(value interface{}) error {
	if value == nil {
		*b = Blocks{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Blocks: %v", value)
	}

	return json.Unmarshal(raw, b)
}

func (b Blocks) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

type Niche string

const (
	NicheRestaurant Niche = "restaurant"
	NicheSalon      Niche = "salon"
	NicheRealEstate Niche = "realestate"
	NichePortfolio  Niche = "portfolio"
	NicheConsulting Niche = "consulting"
	NicheFitness    Niche = "fitness"
	NicheGeneral    Niche = "general"
)

func (n Niche) Valid() bool {
	switch n {
	case NicheRestaurant, NicheSalon, NicheRealEstate, NichePortfolio, NicheConsulting, NicheFitness, NicheGeneral:
		return true
	}
	return false
}

type Site struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"userId" db:"user_id"`
	Slug            string     `json:"slug" db:"slug"`
	Niche           Niche      `json:"niche" db:"niche"`
	Title           string     `json:"title" db:"title"`
	DraftBlocks     Blocks     `json:"draftBlocks" db:"draft_blocks"`
	PublishedBlocks Blocks     `json:"publishedBlocks" db:"published_blocks"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty" db:"published_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// PublicSite is what GET /sites/:slug renders.
type PublicSite struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Niche       Niche     `json:"niche"`
	Blocks      Blocks    `json:"blocks"`
	PublishedAt time.Time `json:"publishedAt"`
}
