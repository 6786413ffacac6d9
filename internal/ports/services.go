package ports

import (
	"time"

	"github.com/journify/core/internal/domain/entities"
)

// Request/Response Types

// Entry related types
type CreateEntryRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=200"`
	Content     string         `json:"content" validate:"required"`
	Mood        *entities.Mood `json:"mood" validate:"omitempty,oneof=happy sad excited calm angry neutral"`
	TagIDs      []string       `json:"tagIds" validate:"omitempty,dive,required"`
	IsHighlight bool           `json:"isHighlight"`
}

type UpdateEntryRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=200"`
	Content     *string        `json:"content"`
	Mood        *entities.Mood `json:"mood" validate:"omitempty,oneof=happy sad excited calm angry neutral"`
	ClearMood   bool           `json:"clearMood"`
	TagIDs      *[]string      `json:"tagIds" validate:"omitempty,dive,required"`
	IsHighlight *bool          `json:"isHighlight"`
}

// Patch converts the request to a store patch stamped at now.
func (r UpdateEntryRequest) Patch(now time.Time) entities.EntryPatch {
	return entities.EntryPatch{
		Title:       r.Title,
		Content:     r.Content,
		Mood:        r.Mood,
		ClearMood:   r.ClearMood,
		TagIDs:      r.TagIDs,
		IsHighlight: r.IsHighlight,
		UpdatedAt:   &now,
	}
}

// Tag related types
type CreateTagRequest struct {
	Name        string           `json:"name" validate:"required,max=50"`
	Type        entities.TagType `json:"type" validate:"required,oneof=folder person location hashtag highlight"`
	Color       *string          `json:"color" validate:"omitempty,hexcolor"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	ParentID    *string          `json:"parentId"`
}

type UpdateTagRequest struct {
	Name        *string           `json:"name" validate:"omitempty,max=50"`
	Type        *entities.TagType `json:"type" validate:"omitempty,oneof=folder person location hashtag highlight"`
	Color       *string           `json:"color" validate:"omitempty,hexcolor"`
	Description *string           `json:"description" validate:"omitempty,max=500"`
	ParentID    *string           `json:"parentId"`
	ClearParent bool              `json:"clearParent"`
}

func (r UpdateTagRequest) Patch() entities.TagPatch {
	return entities.TagPatch{
		Name:        r.Name,
		Type:        r.Type,
		Color:       r.Color,
		Description: r.Description,
		ParentID:    r.ParentID,
		ClearParent: r.ClearParent,
	}
}

// UI state types
type SetViewRequest struct {
	View entities.View `json:"view" validate:"required,oneof=timeline calendar grid stats tags"`
}

type SetThemeRequest struct {
	Theme entities.Theme `json:"theme" validate:"required,oneof=light dark system"`
}

type SetSidebarRequest struct {
	Open bool `json:"open"`
}

// Editor types
type DraftRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=200"`
	Content     *string        `json:"content"`
	Mood        *entities.Mood `json:"mood" validate:"omitempty,oneof=happy sad excited calm angry neutral"`
	ClearMood   bool           `json:"clearMood"`
	TagIDs      *[]string      `json:"tagIds"`
	IsHighlight *bool          `json:"isHighlight"`
}

// Patch converts the request to a draft patch. The editor stamps updatedAt on
// save.
func (r DraftRequest) Patch() entities.EntryPatch {
	return entities.EntryPatch{
		Title:       r.Title,
		Content:     r.Content,
		Mood:        r.Mood,
		ClearMood:   r.ClearMood,
		TagIDs:      r.TagIDs,
		IsHighlight: r.IsHighlight,
	}
}

type InlineTagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// Attachment types
type AttachmentUploadRequest struct {
	Filename string                  `json:"filename" validate:"required,max=255"`
	Type     entities.AttachmentType `json:"type" validate:"required,oneof=image video audio"`
	Size     int64                   `json:"size" validate:"gte=0"`
}

type AttachmentUploadResponse struct {
	Attachment entities.Attachment `json:"attachment"`
	UploadURL  string              `json:"uploadUrl"`
}

// Notification is a non-fatal failure surfaced to the user, such as a remote
// save that did not go through.
type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Op        string    `json:"op"`
	EntityID  string    `json:"entityId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
