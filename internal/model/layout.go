package model

// Layout types. Exactly one layout of each type may exist.
const (
	LayoutBanner     = "Banner"
	LayoutFAQ        = "FAQ"
	LayoutCategories = "Categories"
)

// FAQItem is a question/answer pair on the FAQ layout.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BannerImage wraps the banner image URL.
type BannerImage struct {
	URL string `json:"url"`
}

// Banner is the landing page hero.
type Banner struct {
	Image    BannerImage `json:"image"`
	Title    string      `json:"title"`
	SubTitle string      `json:"subTitle"`
}

// Layout is a CMS content block keyed by Type.
type Layout struct {
	ID         string    `json:"_id"`
	Type       string    `json:"type"`
	FAQ        []FAQItem `json:"faq,omitempty"`
	Categories []Titled  `json:"categories,omitempty"`
	Banner     *Banner   `json:"banner,omitempty"`
}

// ValidLayoutType reports whether t is one of the supported layout types.
func ValidLayoutType(t string) bool {
	return t == LayoutBanner || t == LayoutFAQ || t == LayoutCategories
}
