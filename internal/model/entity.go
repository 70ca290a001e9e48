package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries identity, tenant ownership, audit stamps and the soft-delete
// flag shared by every persisted entity.
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Seq       int64      `json:"-" db:"seq"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	IsDeleted bool       `json:"is_deleted" db:"is_deleted"`
}

// Meta gives generic code access to the embedded Base.
func (b *Base) Meta() *Base {
	return b
}

// Entity is implemented by pointers to every persisted type.
// TableName must not dereference its receiver.
type Entity interface {
	TableName() string
	Meta() *Base
	// Columns returns the entity's own columns, excluding those in Base.
	Columns() map[string]interface{}
}

// Caller identifies who is acting and in which clinic.
type Caller struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     Role
}

// Page is a 1-based page request.
type Page struct {
	Number int `form:"page" json:"page"`
	Size   int `form:"page_size" json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func nullUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
