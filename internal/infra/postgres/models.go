package postgres

import (
	"time"

	"lehrmarkt-service/internal/domain"

	"github.com/lib/pq"
)

// MaterialModel is the GORM model for the materials table.
type MaterialModel struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string `gorm:"type:varchar(500);not null"`
	Description string `gorm:"type:text"`

	// Price in centimes.
	Price int `gorm:"not null;default:0;index"`

	Subjects     pq.StringArray `gorm:"type:text[]"`
	Cycles       pq.StringArray `gorm:"type:text[]"`
	Dialect      string         `gorm:"type:varchar(10);not null;default:'BOTH'"`
	MIIntegrated bool           `gorm:"column:mi_integrated;not null;default:false"`

	FileURL    string `gorm:"type:varchar(1000);not null"`
	PreviewURL string `gorm:"type:varchar(1000)"`

	IsPublished bool `gorm:"not null;default:false;index"`
	IsPublic    bool `gorm:"not null;default:true"`

	SellerID string    `gorm:"type:uuid;not null;index"`
	Seller   UserModel `gorm:"foreignKey:SellerID"`

	Reviews []ReviewModel `gorm:"foreignKey:MaterialID"`

	Competencies []CompetencyModel  `gorm:"many2many:material_competencies;joinForeignKey:MaterialID;joinReferences:CompetencyID"`
	Transversals []TransversalModel `gorm:"many2many:material_transversals;joinForeignKey:MaterialID;joinReferences:TransversalID"`
	BneThemes    []BneThemeModel    `gorm:"many2many:material_bne_themes;joinForeignKey:MaterialID;joinReferences:BneThemeID"`
	Lehrmittel   []LehrmittelModel  `gorm:"many2many:material_lehrmittel;joinForeignKey:MaterialID;joinReferences:LehrmittelID"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MaterialModel.
func (MaterialModel) TableName() string {
	return "materials"
}

// UserModel is the GORM model for sellers. Referenced read-only.
type UserModel struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DisplayName string         `gorm:"type:varchar(200);not null"`
	Verified    bool           `gorm:"not null;default:false"`
	Cantons     pq.StringArray `gorm:"type:text[]"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// ReviewModel holds a single review rating. Only ratings are read here;
// review bodies belong to the review flow.
type ReviewModel struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MaterialID string    `gorm:"type:uuid;not null;index"`
	Rating     int       `gorm:"not null"` // 1..5
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ReviewModel) TableName() string {
	return "reviews"
}

// CompetencyModel is an LP21 curriculum competency.
type CompetencyModel struct {
	ID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title string `gorm:"type:varchar(500)"`
}

func (CompetencyModel) TableName() string {
	return "curriculum_competencies"
}

// TransversalModel is a transversal competency.
type TransversalModel struct {
	ID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title string `gorm:"type:varchar(500)"`
}

func (TransversalModel) TableName() string {
	return "transversal_competencies"
}

// BneThemeModel is a BNE (education for sustainable development) theme.
type BneThemeModel struct {
	ID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title string `gorm:"type:varchar(500)"`
}

func (BneThemeModel) TableName() string {
	return "bne_themes"
}

// LehrmittelModel is an external teaching-material catalog entry.
type LehrmittelModel struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Publisher  string         `gorm:"type:varchar(50);not null;index:idx_publisher_external,unique"`
	ExternalID string         `gorm:"type:varchar(100);not null;index:idx_publisher_external,unique"`
	Title      string         `gorm:"type:varchar(500);not null"`
	Subjects   pq.StringArray `gorm:"type:text[]"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (LehrmittelModel) TableName() string {
	return "lehrmittel"
}

// ToDomain converts MaterialModel to domain.Material.
func (m *MaterialModel) ToDomain() *domain.Material {
	ratings := make([]int, len(m.Reviews))
	for i, r := range m.Reviews {
		ratings[i] = r.Rating
	}

	return &domain.Material{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Price:        m.Price,
		Subjects:     m.Subjects,
		Cycles:       m.Cycles,
		Dialect:      domain.Dialect(m.Dialect),
		MIIntegrated: m.MIIntegrated,
		FileURL:      m.FileURL,
		PreviewURL:   m.PreviewURL,
		IsPublished:  m.IsPublished,
		IsPublic:     m.IsPublic,
		Seller: domain.Seller{
			ID:          m.Seller.ID,
			DisplayName: m.Seller.DisplayName,
			Verified:    m.Seller.Verified,
			Cantons:     m.Seller.Cantons,
		},
		Ratings:      ratings,
		Competencies: badges(m.Competencies, func(c CompetencyModel) (string, string) { return c.Code, c.Title }),
		Transversals: badges(m.Transversals, func(c TransversalModel) (string, string) { return c.Code, c.Title }),
		BneThemes:    badges(m.BneThemes, func(c BneThemeModel) (string, string) { return c.Code, c.Title }),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func badges[T any](models []T, fields func(T) (code, title string)) []domain.Badge {
	out := make([]domain.Badge, len(models))
	for i, m := range models {
		code, title := fields(m)
		out[i] = domain.Badge{Code: code, Title: title}
	}
	return out
}

// ToDomain converts LehrmittelModel to domain.Lehrmittel.
func (m *LehrmittelModel) ToDomain() *domain.Lehrmittel {
	return &domain.Lehrmittel{
		ID:         m.ID,
		Publisher:  m.Publisher,
		ExternalID: m.ExternalID,
		Title:      m.Title,
		Subjects:   m.Subjects,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// LehrmittelFromDomain creates a LehrmittelModel from domain.Lehrmittel.
func LehrmittelFromDomain(l *domain.Lehrmittel) *LehrmittelModel {
	return &LehrmittelModel{
		ID:         l.ID,
		Publisher:  l.Publisher,
		ExternalID: l.ExternalID,
		Title:      l.Title,
		Subjects:   l.Subjects,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}
