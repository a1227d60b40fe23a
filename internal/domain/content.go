package domain

import "context"

// Link is a labelled URL rendered in the footer.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// FooterContent is the site-wide footer managed in the remote CMS.
type FooterContent struct {
	About   string `json:"about"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Links   []Link `json:"links"`
}

// ContentPage is a CMS page such as "about" or "terms". Body is sanitized HTML.
type ContentPage struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Testimonial is a customer quote shown on the home page.
type Testimonial struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Quote   string `json:"quote"`
}

// ContentService is the remote CMS resource.
type ContentService interface {
	Footer(ctx context.Context) (*FooterContent, error)
	Page(ctx context.Context, slug string) (*ContentPage, error)
	Testimonials(ctx context.Context) ([]Testimonial, error)
}
