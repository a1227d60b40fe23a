package domain

import "time"

// BaseModel is the common base struct for locally persisted models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageQuery holds the paging parameters a browser sends to the tender listing.
// Reset selects between replacing the displayed list and appending to it.
type PageQuery struct {
	Page  int
	Reset bool
}
