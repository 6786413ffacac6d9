package entities

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrEntryNotFound = fmt.Errorf("entry %w", ErrNotFound)
	ErrTagNotFound   = fmt.Errorf("tag %w", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", ErrNotFound)
	ErrDuplicateID   = errors.New("duplicate id")
	ErrValidation    = errors.New("validation failed")
	ErrPersistence   = errors.New("persistence failure")
	ErrTagCycle      = errors.New("tag hierarchy cycle")
)

// Enums and types
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodExcited Mood = "excited"
	MoodCalm    Mood = "calm"
	MoodAngry   Mood = "angry"
	MoodNeutral Mood = "neutral"
)

// Moods lists every mood in display order.
var Moods = []Mood{MoodHappy, MoodSad, MoodExcited, MoodCalm, MoodAngry, MoodNeutral}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

type TagType string

const (
	TagTypeFolder    TagType = "folder"
	TagTypePerson    TagType = "person"
	TagTypeLocation  TagType = "location"
	TagTypeHashtag   TagType = "hashtag"
	TagTypeHighlight TagType = "highlight"
)

// TagTypes is the canonical closed set of tag types.
var TagTypes = []TagType{TagTypeFolder, TagTypePerson, TagTypeLocation, TagTypeHashtag, TagTypeHighlight}

func (t TagType) Valid() bool {
	for _, v := range TagTypes {
		if t == v {
			return true
		}
	}
	return false
}

// DefaultColor returns the color a new tag of this type gets when none is chosen.
func (t TagType) DefaultColor() string {
	switch t {
	case TagTypeFolder:
		return "#3B82F6"
	case TagTypePerson:
		return "#10B981"
	case TagTypeHashtag:
		return "#8B5CF6"
	case TagTypeLocation:
		return "#F59E0B"
	case TagTypeHighlight:
		return "#EF4444"
	default:
		return "#6B7280"
	}
}

type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypeVideo AttachmentType = "video"
	AttachmentTypeAudio AttachmentType = "audio"
)

func (t AttachmentType) Valid() bool {
	return t == AttachmentTypeImage || t == AttachmentTypeVideo || t == AttachmentTypeAudio
}

type View string

const (
	ViewTimeline View = "timeline"
	ViewCalendar View = "calendar"
	ViewGrid     View = "grid"
	ViewStats    View = "stats"
	ViewTags     View = "tags"
)

func (v View) Valid() bool {
	switch v {
	case ViewTimeline, ViewCalendar, ViewGrid, ViewStats, ViewTags:
		return true
	}
	return false
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type PrivacyLevel string

const (
	PrivacyPrivate PrivacyLevel = "private"
	PrivacyPublic  PrivacyLevel = "public"
)

// User represents the journal owner
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// JournalEntry is a single dated journal record. Tags are referenced by id and
// resolved against the tag registry when read.
type JournalEntry struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       *string      `json:"title,omitempty"`
	Content     string       `json:"content"`
	Mood        *Mood        `json:"mood,omitempty"`
	TagIDs      []string     `json:"tagIds"`
	IsHighlight bool         `json:"isHighlight"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// HasTag reports whether the entry references the given tag id.
func (e *JournalEntry) HasTag(tagID string) bool {
	for _, id := range e.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e JournalEntry) Clone() JournalEntry {
	out := e
	if e.Title != nil {
		title := *e.Title
		out.Title = &title
	}
	if e.Mood != nil {
		mood := *e.Mood
		out.Mood = &mood
	}
	if e.TagIDs != nil {
		out.TagIDs = append([]string(nil), e.TagIDs...)
	}
	if e.Attachments != nil {
		out.Attachments = append([]Attachment(nil), e.Attachments...)
	}
	return out
}

// EntryPatch carries a partial entry update; nil fields are left unchanged.
type EntryPatch struct {
	Title       *string       `json:"title,omitempty"`
	ClearTitle  bool          `json:"clearTitle,omitempty"`
	Content     *string       `json:"content,omitempty"`
	Mood        *Mood         `json:"mood,omitempty"`
	ClearMood   bool          `json:"clearMood,omitempty"`
	TagIDs      *[]string     `json:"tagIds,omitempty"`
	IsHighlight *bool         `json:"isHighlight,omitempty"`
	Attachments *[]Attachment `json:"attachments,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

// Apply merges the patch into the entry.
func (p EntryPatch) Apply(e *JournalEntry) {
	if p.ClearTitle {
		e.Title = nil
	} else if p.Title != nil {
		title := *p.Title
		e.Title = &title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.ClearMood {
		e.Mood = nil
	} else if p.Mood != nil {
		mood := *p.Mood
		e.Mood = &mood
	}
	if p.TagIDs != nil {
		e.TagIDs = append([]string{}, (*p.TagIDs)...)
	}
	if p.IsHighlight != nil {
		e.IsHighlight = *p.IsHighlight
	}
	if p.Attachments != nil {
		e.Attachments = append([]Attachment{}, (*p.Attachments)...)
	}
	if p.UpdatedAt != nil {
		e.UpdatedAt = *p.UpdatedAt
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		e.UpdatedAt = e.CreatedAt
	}
}

// Tag is a user-defined label. Folders may nest through ParentID.
type Tag struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Type        TagType    `json:"type" db:"type"`
	Color       *string    `json:"color,omitempty" db:"color"`
	Description *string    `json:"description,omitempty" db:"description"`
	ParentID    *string    `json:"parentId,omitempty" db:"parent_id"`
	UserID      string     `json:"userId" db:"user_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	UsageCount  *int       `json:"usageCount,omitempty" db:"-"`
}

// Clone returns a deep copy of the tag.
func (t Tag) Clone() Tag {
	out := t
	out.Color = cloneString(t.Color)
	out.Description = cloneString(t.Description)
	out.ParentID = cloneString(t.ParentID)
	if t.UpdatedAt != nil {
		ts := *t.UpdatedAt
		out.UpdatedAt = &ts
	}
	if t.UsageCount != nil {
		n := *t.UsageCount
		out.UsageCount = &n
	}
	return out
}

// TagPatch carries a partial tag update.
type TagPatch struct {
	Name        *string  `json:"name,omitempty"`
	Type        *TagType `json:"type,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Description *string  `json:"description,omitempty"`
	ParentID    *string  `json:"parentId,omitempty"`
	ClearParent bool     `json:"clearParent,omitempty"`
}

// Apply merges the patch into the tag and stamps UpdatedAt.
func (p TagPatch) Apply(t *Tag, now time.Time) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Color != nil {
		t.Color = cloneString(p.Color)
	}
	if p.Description != nil {
		t.Description = cloneString(p.Description)
	}
	if p.ClearParent || (p.ParentID != nil && *p.ParentID == "") {
		t.ParentID = nil
	} else if p.ParentID != nil {
		t.ParentID = cloneString(p.ParentID)
	}
	t.UpdatedAt = &now
}

// Attachment is a media file linked to an entry.
type Attachment struct {
	ID        string         `json:"id" db:"id"`
	EntryID   string         `json:"entryId" db:"entry_id"`
	Type      AttachmentType `json:"type" db:"type"`
	URL       string         `json:"url" db:"url"`
	Filename  string         `json:"filename" db:"filename"`
	Size      int64          `json:"size" db:"size"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
}

// AppSettings holds user preferences.
type AppSettings struct {
	Theme         Theme        `json:"theme"`
	Notifications bool         `json:"notifications"`
	DailyReminder bool         `json:"dailyReminder"`
	ReminderTime  string       `json:"reminderTime"`
	PrivacyLevel  PrivacyLevel `json:"privacyLevel"`
	AutoSave      bool         `json:"autoSave"`
}

// DefaultSettings returns the settings a fresh journal starts with.
func DefaultSettings() AppSettings {
	return AppSettings{
		Theme:         ThemeSystem,
		Notifications: true,
		DailyReminder: true,
		ReminderTime:  "20:00",
		PrivacyLevel:  PrivacyPrivate,
		AutoSave:      true,
	}
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	Theme         *Theme        `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	Notifications *bool         `json:"notifications,omitempty"`
	DailyReminder *bool         `json:"dailyReminder,omitempty"`
	ReminderTime  *string       `json:"reminderTime,omitempty" validate:"omitempty,datetime=15:04"`
	PrivacyLevel  *PrivacyLevel `json:"privacyLevel,omitempty" validate:"omitempty,oneof=private public"`
	AutoSave      *bool         `json:"autoSave,omitempty"`
}

// Apply merges the patch into the settings.
func (p SettingsPatch) Apply(s *AppSettings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.DailyReminder != nil {
		s.DailyReminder = *p.DailyReminder
	}
	if p.ReminderTime != nil {
		s.ReminderTime = *p.ReminderTime
	}
	if p.PrivacyLevel != nil {
		s.PrivacyLevel = *p.PrivacyLevel
	}
	if p.AutoSave != nil {
		s.AutoSave = *p.AutoSave
	}
}

// DateRange is an inclusive createdAt window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SearchFilters narrows the entries a view shows. A nil field places no
// constraint on its dimension.
type SearchFilters struct {
	SearchTerm  *string    `json:"searchTerm,omitempty"`
	Mood        []Mood     `json:"mood,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	IsHighlight *bool      `json:"isHighlight,omitempty"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
}

// IsEmpty reports whether no filter dimension is set.
func (f SearchFilters) IsEmpty() bool {
	return (f.SearchTerm == nil || *f.SearchTerm == "") && len(f.Mood) == 0 && len(f.Tags) == 0 &&
		f.IsHighlight == nil && f.DateRange == nil
}

// Clone returns a deep copy of the filters.
func (f SearchFilters) Clone() SearchFilters {
	out := f
	out.SearchTerm = cloneString(f.SearchTerm)
	if f.Mood != nil {
		out.Mood = append([]Mood(nil), f.Mood...)
	}
	if f.Tags != nil {
		out.Tags = append([]string(nil), f.Tags...)
	}
	if f.IsHighlight != nil {
		v := *f.IsHighlight
		out.IsHighlight = &v
	}
	if f.DateRange != nil {
		dr := *f.DateRange
		out.DateRange = &dr
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
