package model

import "time"

// DefaultThemeName names the built-in palette.
const DefaultThemeName = "Default"

// Palette holds the console colors as CSS hex strings.
type Palette struct {
	Primary     string `json:"primary" gorm:"size:16"`
	Secondary   string `json:"secondary" gorm:"size:16"`
	Primary2    string `json:"primary2" gorm:"size:16"`
	Secondary2  string `json:"secondary2" gorm:"size:16"`
	Accent      string `json:"accent" gorm:"size:16"`
	Accent2     string `json:"accent2" gorm:"size:16"`
	Background  string `json:"background" gorm:"size:16"`
	Background2 string `json:"background2" gorm:"size:16"`
	Text        string `json:"text" gorm:"size:16"`
	Text2       string `json:"text2" gorm:"size:16"`
}

// Fields exposes every color with its JSON key, in declaration order.
func (p *Palette) Fields() []PaletteField {
	return []PaletteField{
		{"primary", &p.Primary},
		{"secondary", &p.Secondary},
		{"primary2", &p.Primary2},
		{"secondary2", &p.Secondary2},
		{"accent", &p.Accent},
		{"accent2", &p.Accent2},
		{"background", &p.Background},
		{"background2", &p.Background2},
		{"text", &p.Text},
		{"text2", &p.Text2},
	}
}

// PaletteField points at one color of a Palette.
type PaletteField struct {
	Key   string
	Value *string
}

// Theme is a named palette in the shared themes collection.
type Theme struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	Palette    `gorm:"embedded"`
	OwnerEmail string    `json:"ownerEmail,omitempty" gorm:"size:255;index"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"not null"`

	// UserTheme marks a user's own preference listed next to shared themes.
	UserTheme bool `json:"isUserTheme,omitempty" gorm:"-"`
}

func (Theme) TableName() string { return "themes" }

// UserTheme is the palette a user last applied.
type UserTheme struct {
	UserEmail string    `json:"userEmail" gorm:"primaryKey;size:255"`
	Name      string    `json:"name" gorm:"size:128"`
	Palette   `gorm:"embedded"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null"`
}

func (UserTheme) TableName() string { return "user_themes" }
