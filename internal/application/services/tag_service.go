package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// TagService manages the tag taxonomy.
type TagService struct {
	store  *store.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewTagService creates a new tag service
func NewTagService(st *store.Store, logger *logger.Logger) *TagService {
	return &TagService{
		store:  st,
		logger: logger.WithComponent("tag_service"),
		now:    time.Now,
	}
}

// CreateTag adds a tag, defaulting its color from its type.
func (s *TagService) CreateTag(userID string, req ports.CreateTagRequest) (entities.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return entities.Tag{}, entities.NewValidationError("name", "must not be empty")
	}

	color := req.Color
	if color == nil || *color == "" {
		c := req.Type.DefaultColor()
		color = &c
	}

	var description *string
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			description = &d
		}
	}

	var parentID *string
	if req.ParentID != nil && *req.ParentID != "" {
		parentID = req.ParentID
	}

	tag := entities.Tag{
		ID:          uuid.NewString(),
		Name:        name,
		Type:        req.Type,
		Color:       color,
		Description: description,
		ParentID:    parentID,
		UserID:      userID,
		CreatedAt:   s.now(),
	}

	if err := s.store.AddTag(tag); err != nil {
		return entities.Tag{}, fmt.Errorf("failed to create tag: %w", err)
	}

	s.logger.Infow("Tag created successfully", "tag_id", tag.ID, "name", tag.Name, "type", tag.Type)
	return tag, nil
}

func (s *TagService) UpdateTag(id string, req ports.UpdateTagRequest) (entities.Tag, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return entities.Tag{}, entities.NewValidationError("name", "must not be empty")
	}
	if err := s.store.UpdateTag(id, req.Patch()); err != nil {
		return entities.Tag{}, err
	}
	tag, _ := s.store.Tag(id)
	return tag, nil
}

// DeleteTag removes the tag from the registry. Entries referencing it keep
// the id and simply stop resolving it.
func (s *TagService) DeleteTag(id string) error {
	if err := s.store.DeleteTag(id); err != nil {
		return err
	}
	s.logger.Infow("Tag deleted successfully", "tag_id", id)
	return nil
}

func (s *TagService) GetTag(id string) (entities.Tag, error) {
	tags := query.WithUsageCounts(s.store.Tags(), s.store.Entries())
	for _, t := range tags {
		if t.ID == id {
			return t, nil
		}
	}
	return entities.Tag{}, fmt.Errorf("get tag %s: %w", id, entities.ErrTagNotFound)
}

// ListTags returns the registry with fresh usage counts, optionally limited to
// one type.
func (s *TagService) ListTags(typ *entities.TagType) []entities.Tag {
	tags := query.WithUsageCounts(s.store.Tags(), s.store.Entries())
	if typ == nil {
		return tags
	}
	return query.TagsByType(tags, *typ)
}

// Children lists the direct children of a folder.
func (s *TagService) Children(parentID string) ([]entities.Tag, error) {
	if _, ok := s.store.Tag(parentID); !ok {
		return nil, fmt.Errorf("tag children %s: %w", parentID, entities.ErrTagNotFound)
	}
	return query.ChildTags(query.WithUsageCounts(s.store.Tags(), s.store.Entries()), parentID), nil
}
