package model

import "time"

// Catalog one of the independently refreshed entity collections
type Catalog string

const (
	CatalogLeagues  Catalog = "leagues"
	CatalogChannels Catalog = "channels"
)

// DefaultRegion region of channels whose name carries none
const DefaultRegion = "Global"

// DefaultChannelCategory category assigned to seeded channels
const DefaultChannelCategory = "Sports TV"

// Valid reports whether c names a known catalog
func (c Catalog) Valid() bool {
	return c == CatalogLeagues || c == CatalogChannels
}

// League sports league row
type League struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(256);not null" json:"name"`
	Sport       string     `gorm:"column:sport;type:varchar(128);not null;index" json:"sport"`
	Category    string     `gorm:"column:category;type:varchar(128);not null" json:"category"`
	ImageURL    *string    `gorm:"column:image_url;type:text" json:"imageUrl"`
	LastUpdated *time.Time `gorm:"column:last_updated;type:timestamp" json:"lastUpdated"`
}

// Channel TV channel row
type Channel struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(256);not null" json:"name"`
	Region      *string    `gorm:"column:region;type:varchar(64);index" json:"region"`
	Category    string     `gorm:"column:category;type:varchar(64);default:Sports" json:"category"`
	ImageURL    *string    `gorm:"column:image_url;type:text" json:"imageUrl"`
	LastUpdated *time.Time `gorm:"column:last_updated;type:timestamp" json:"lastUpdated"`
}

func (League) TableName() string  { return "leagues" }
func (Channel) TableName() string { return "channels" }

// Entity catalog-independent view of a league or a channel.
// Group is the sport for leagues and the region for channels.
type Entity struct {
	ID          uint64     `json:"id"`
	Catalog     Catalog    `json:"catalog"`
	Name        string     `json:"name"`
	Group       string     `json:"group"`
	Category    string     `json:"category"`
	ImageURL    string     `json:"imageUrl"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Entity converts the row into its catalog-independent view
func (l *League) Entity() Entity {
	return Entity{
		ID:          l.ID,
		Catalog:     CatalogLeagues,
		Name:        l.Name,
		Group:       l.Sport,
		Category:    l.Category,
		ImageURL:    deref(l.ImageURL),
		LastUpdated: l.LastUpdated,
	}
}

// Entity converts the row into its catalog-independent view
func (c *Channel) Entity() Entity {
	region := deref(c.Region)
	if region == "" {
		region = DefaultRegion
	}
	return Entity{
		ID:          c.ID,
		Catalog:     CatalogChannels,
		Name:        c.Name,
		Group:       region,
		Category:    c.Category,
		ImageURL:    deref(c.ImageURL),
		LastUpdated: c.LastUpdated,
	}
}

// NewLeague builds a league row from its view
func NewLeague(e Entity) *League {
	return &League{
		Name:        e.Name,
		Sport:       e.Group,
		Category:    e.Category,
		ImageURL:    optional(e.ImageURL),
		LastUpdated: e.LastUpdated,
	}
}

// NewChannel builds a channel row from its view
func NewChannel(e Entity) *Channel {
	region := e.Group
	if region == "" {
		region = DefaultRegion
	}
	category := e.Category
	if category == "" {
		category = DefaultChannelCategory
	}
	return &Channel{
		Name:        e.Name,
		Region:      &region,
		Category:    category,
		ImageURL:    optional(e.ImageURL),
		LastUpdated: e.LastUpdated,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
