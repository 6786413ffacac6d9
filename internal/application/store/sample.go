package store

import (
	"time"

	"github.com/journify/core/internal/domain/entities"
)

const sampleUserID = "user-1"

// InitializeSampleData replaces entries and tags with a small demo journal.
// It owns the demo owner id unless a user is already set.
func (s *Store) InitializeSampleData() {
	now := s.now()
	_ = s.commit(Change{Op: OpReplace, Kind: KindAll}, func(st *State) error {
		userID := sampleUserID
		if st.User != nil && st.User.ID != "" {
			userID = st.User.ID
		}
		st.Tags = SampleTags(userID, now)
		st.Entries = SampleEntries(userID, now)
		return nil
	})
}

// SampleTags returns the demo tag registry.
func SampleTags(userID string, now time.Time) []entities.Tag {
	tag := func(id, name string, typ entities.TagType, color, description string, usage int) entities.Tag {
		updated := now
		return entities.Tag{
			ID:          id,
			Name:        name,
			Type:        typ,
			Color:       &color,
			Description: &description,
			UserID:      userID,
			CreatedAt:   now,
			UpdatedAt:   &updated,
			UsageCount:  &usage,
		}
	}
	return []entities.Tag{
		tag("1", "Work", entities.TagTypeFolder, "#3B82F6", "Work-related entries and projects", 5),
		tag("2", "Personal", entities.TagTypeFolder, "#8B5CF6", "Personal life and reflections", 8),
		tag("3", "John", entities.TagTypePerson, "#10B981", "My colleague John", 3),
		tag("4", "Sarah", entities.TagTypePerson, "#F59E0B", "My friend Sarah", 2),
		tag("5", "Gratitude", entities.TagTypeHashtag, "#8B5CF6", "Things I'm grateful for", 4),
		tag("6", "Goals", entities.TagTypeHashtag, "#EF4444", "My goals and aspirations", 6),
		tag("7", "Coffee Shop", entities.TagTypeLocation, "#F59E0B", "My favorite coffee shop", 2),
		tag("8", "Home Office", entities.TagTypeLocation, "#10B981", "My home office space", 3),
		tag("9", "Milestone", entities.TagTypeHighlight, "#EF4444", "Important milestones and achievements", 2),
	}
}

// SampleEntries returns the two demo entries, newest first.
func SampleEntries(userID string, now time.Time) []entities.JournalEntry {
	day := 24 * time.Hour
	firstTitle := "My First Journal Entry"
	secondTitle := "Work Progress"
	excited := entities.MoodExcited
	happy := entities.MoodHappy

	return []entities.JournalEntry{
		{
			ID:          "2",
			UserID:      userID,
			Title:       &secondTitle,
			Content:     "Made significant progress on the project today. The team collaboration was excellent and we achieved our sprint goals ahead of schedule. Feeling accomplished and motivated for the next phase.",
			Mood:        &happy,
			TagIDs:      []string{"1", "3"},
			Attachments: []entities.Attachment{},
			CreatedAt:   now.Add(-1 * day),
			UpdatedAt:   now.Add(-1 * day),
		},
		{
			ID:          "1",
			UserID:      userID,
			Title:       &firstTitle,
			Content:     "Today I started my journaling journey with Journify. I'm excited to see how this practice will help me reflect on my daily experiences and track my personal growth over time.",
			Mood:        &excited,
			TagIDs:      []string{"1", "5"},
			IsHighlight: true,
			Attachments: []entities.Attachment{},
			CreatedAt:   now.Add(-2 * day),
			UpdatedAt:   now.Add(-2 * day),
		},
	}
}
