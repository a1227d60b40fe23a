package domain

import (
	"context"
	"time"
)

// Package is a paid subscription tier gating tender detail access.
type Package struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	DurationDay int      `json:"duration_days"`
	Features    []string `json:"features"`
}

// Subscription is the package currently held by a user.
type Subscription struct {
	Package   Package    `json:"package"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Profile is the dashboard view of the logged-in account.
type Profile struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Company      string        `json:"company"`
	Phone        string        `json:"phone"`
	Categories   []Ref         `json:"categories"`
	Subscription *Subscription `json:"subscription"`
}

// PackageActive reports whether the profile holds an active subscription.
func (p *Profile) PackageActive() bool {
	return p != nil && p.Subscription != nil && p.Subscription.Active
}

// Stub reduces the profile to the session user stub.
func (p *Profile) Stub() UserStub {
	return UserStub{ID: p.ID, Name: p.Name, Email: p.Email, PackageActive: p.PackageActive()}
}

// PackageService is the remote package catalogue.
type PackageService interface {
	List(ctx context.Context) ([]Package, error)
}

// AccountService is the remote account resource of the logged-in user.
type AccountService interface {
	Profile(ctx context.Context) (*Profile, error)
	UpdateEmail(ctx context.Context, email string) error
	UpdateCategories(ctx context.Context, categoryIDs []int) error
}
