package app

import (
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/simp-lee/smarttenders/internal/domain"
	"github.com/simp-lee/smarttenders/internal/middleware"
	"github.com/simp-lee/smarttenders/internal/tender"
	"github.com/simp-lee/smarttenders/internal/wizard"
	"github.com/simp-lee/smarttenders/web"
)

// layoutData mirrors what middleware.ViewData adds to every page.
func layoutData(extra map[string]any) map[string]any {
	data := map[string]any{
		"CSRFToken": "tok.sig",
		"Flash":     &middleware.Notice{Kind: middleware.NoticeSuccess, Message: "Filters saved."},
		"Session":   &domain.Session{Token: "t", User: domain.UserStub{ID: 3, Name: "Sita", PackageActive: true}},
		"RequestID": "req-1",
		"Path":      "/",
		"Footer": &domain.FooterContent{
			About: "Tender notices in one place.",
			Email: "info@smarttenders.test",
			Links: []domain.Link{{Label: "Terms", URL: "/pages/terms"}},
		},
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func TestEmbeddedPagesRender(t *testing.T) {
	r, err := NewTemplateRenderer(web.EmbeddedFS, false)
	if err != nil {
		t.Fatalf("parse embedded templates: %v", err)
	}

	due := time.Now().Add(72 * time.Hour)
	bridge := domain.Tender{
		ID:          7,
		Title:       "Bridge repair",
		Code:        "DoR-7",
		PublishedAt: time.Now(),
		DueAt:       &due,
		Province:    "Bagmati",
		District:    "Kathmandu",
		Status:      domain.TenderLive,
		Categories:  []domain.Ref{{ID: 2, Name: "Construction"}},
		Papers:      []domain.Ref{{ID: 1, Name: "Gorkhapatra"}},
		Files:       []domain.Attachment{{Name: "notice.jpg", URL: "https://cdn.test/notice.jpg"}},
		Documents:   map[string]string{"en": "https://cdn.test/doc-en.pdf"},
	}
	snap := tender.Snapshot{
		Items: []domain.Tender{bridge},
		Filters: domain.Filters{
			domain.FilterStatus:    "live",
			domain.FilterCategory:  "2",
			domain.FilterNewspaper: "4",
			domain.FilterMonth:     "5",
			domain.FilterYear:      "2081",
		},
		Page:   1,
		Cursor: domain.Cursor{CurrentPage: 1, LastPage: 3, Total: 25},
		Counts: map[string]int{"live": 20, "closed": 5},
		Loaded: true,
	}
	tax := &domain.Taxonomy{
		Provinces: []domain.Province{{Name: "Bagmati", Count: 12, Districts: []domain.District{{Name: "Kathmandu", Count: 9}}}},
		Categories: []domain.CategoryCount{
			{ID: 2, Name: "Construction", Count: 8},
			{ID: 5, Name: "Supplies", Count: 4},
		},
		Newspapers: []domain.Ref{{ID: 1, Name: "Gorkhapatra"}, {ID: 4, Name: "Kantipur"}},
	}
	months := []string{
		"Baishakh", "Jestha", "Ashadh", "Shrawan", "Bhadra", "Ashwin",
		"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
	}
	statuses := []domain.TenderStatus{domain.TenderLive, domain.TenderClosed}
	pkgs := []domain.Package{{ID: 1, Name: "Basic", Price: 1500, DurationDay: 30, Features: []string{"Email alerts"}}}
	form := domain.RegistrationForm{
		Account:     domain.AccountStep{Email: "sita@example.com"},
		Contact:     domain.ContactStep{Name: "Sita"},
		Preferences: domain.PreferencesStep{Categories: []int{2}, Provinces: []string{"Bagmati"}},
		Package:     domain.PackageStep{PackageID: 1},
	}

	listData := func() map[string]any {
		return layoutData(map[string]any{
			"Title":     "Tenders",
			"Snapshot":  snap,
			"Filters":   snap.Filters,
			"NextPage":  2,
			"HasMore":   true,
			"Statuses":  statuses,
			"Districts": tax.Provinces[0].Districts,
			"Taxonomy":  tax,
			"Months":    months,
		})
	}
	stepData := func(step wizard.Step) map[string]any {
		return layoutData(map[string]any{
			"Title":      "Create an account",
			"Step":       step,
			"Steps":      wizard.Steps,
			"Last":       step == wizard.StepPackage,
			"Form":       form,
			"Errors":     map[string]string{"categories": "Select at least 1 categories."},
			"Message":    "",
			"Categories": tax.Categories,
			"Provinces":  tax.Provinces,
			"Packages":   pkgs,
		})
	}

	tests := []struct {
		page string
		data map[string]any
		want string
	}{
		{
			page: "home.html",
			data: layoutData(map[string]any{
				"Title":        "SmartTenders",
				"Packages":     pkgs,
				"Testimonials": []domain.Testimonial{{Name: "Ram", Company: "RK Builders", Quote: "Saves hours."}},
			}),
			want: "Rs. 1,500",
		},
		{page: "tenders/list.html", data: listData(), want: `hx-get="/tenders/more?page=2"`},
		{page: "tenders/list.html", data: listData(), want: `<option value="4" selected>Kantipur</option>`},
		{page: "tenders/list.html", data: listData(), want: `<option value="5" selected>Bhadra</option>`},
		{page: "tenders/list.html", data: listData(), want: `name="year" placeholder="Year (BS)" min="2000" max="2200" value="2081"`},
		{
			page: "tenders/list.html",
			data: layoutData(map[string]any{
				"Title":         "Tenders",
				"Snapshot":      tender.Snapshot{Error: "Tenders could not be loaded."},
				"Filters":       domain.Filters{},
				"NextPage":      1,
				"HasMore":       false,
				"Statuses":      statuses,
				"Districts":     []domain.District{},
				"Months":        months,
				"TaxonomyError": "Filters are temporarily unavailable.",
			}),
			want: "Tenders could not be loaded.",
		},
		{
			page: "tenders/rows.html",
			data: layoutData(map[string]any{"Snapshot": snap, "NextPage": 2, "HasMore": false}),
			want: "Bridge repair",
		},
		{
			page: "tenders/detail.html",
			data: layoutData(map[string]any{"Title": bridge.Title, "Tender": bridge}),
			want: "Gorkhapatra",
		},
		{
			page: "auth/login.html",
			data: layoutData(map[string]any{
				"Title":  "Log in",
				"Next":   "/tenders/7",
				"Email":  "a@b.test",
				"Errors": map[string]string{"email": "Enter a valid email address."},
			}),
			want: "Enter a valid email address.",
		},
		{
			page: "auth/login.html",
			data: layoutData(map[string]any{"Title": "Log in"}),
			want: `name="_csrf_token" value="tok.sig"`,
		},
		{
			page: "auth/forgot.html",
			data: layoutData(map[string]any{"Title": "Forgot password", "Error": "Try again later."}),
			want: "Try again later.",
		},
		{
			page: "auth/reset.html",
			data: layoutData(map[string]any{"Title": "Reset password", "Token": "abc", "Email": "a@b.test"}),
			want: `value="abc"`,
		},
		{page: "register/step.html", data: stepData(wizard.StepAccount), want: `value="sita@example.com"`},
		{page: "register/step.html", data: stepData(wizard.StepContact), want: `href="/register?step=1"`},
		{page: "register/step.html", data: stepData(wizard.StepPreferences), want: `value="2" checked`},
		{page: "register/step.html", data: stepData(wizard.StepPackage), want: "Create account"},
		{
			page: "register/otp.html",
			data: layoutData(map[string]any{"Title": "Confirm your email", "Email": "sita@example.com"}),
			want: "sita@example.com",
		},
		{
			page: "dashboard/index.html",
			data: layoutData(map[string]any{
				"Title": "Dashboard",
				"Profile": &domain.Profile{
					ID:           3,
					Name:         "Sita",
					Email:        "sita@example.com",
					Categories:   []domain.Ref{{ID: 2}},
					Subscription: &domain.Subscription{Package: pkgs[0], Active: true, ExpiresAt: &due},
				},
				"Selected":   map[int]bool{2: true},
				"Categories": tax.Categories,
			}),
			want: `value="2" checked`,
		},
		{
			page: "content/page.html",
			data: layoutData(map[string]any{
				"Title": "Terms",
				"Page":  domain.ContentPage{Slug: "terms", Title: "Terms"},
				"Body":  template.HTML("<p>Be nice.</p>"),
			}),
			want: "<p>Be nice.</p>",
		},
		{page: "errors/400.html", data: layoutData(map[string]any{"Title": "Bad Request", "Message": "Bad filter."}), want: "Bad filter."},
		{page: "errors/404.html", data: layoutData(map[string]any{"Title": "Not Found", "Message": "Gone."}), want: "Gone."},
		{page: "errors/500.html", data: layoutData(map[string]any{"Title": "Internal Server Error", "Message": "Oops."}), want: "Oops."},
	}
	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			got := renderPage(t, r, tt.page, tt.data)
			if !strings.Contains(got, tt.want) {
				t.Errorf("%s missing %q", tt.page, tt.want)
			}
			if strings.Contains(got, "<no value>") {
				t.Errorf("%s rendered a missing value", tt.page)
			}
		})
	}
}
