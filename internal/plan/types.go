package plan

import "time"

type ItemType string

const (
	ItemTypeSong         ItemType = "song"
	ItemTypeScripture    ItemType = "scripture"
	ItemTypeLessonBlock  ItemType = "lesson_block"
	ItemTypePrayerTime   ItemType = "prayer_time"
	ItemTypeAnnouncement ItemType = "announcement"
	ItemTypeCustom       ItemType = "custom"
)

// Item is a single entry of a service plan. Items are ordered and
// contiguous by Position within a plan, and IDs are unique.
type Item struct {
	ID               string   `json:"id"`
	Position         int      `json:"position"`
	Type             ItemType `json:"type"`
	Title            string   `json:"title"`
	Notes            string   `json:"notes,omitempty"`
	EstimatedSeconds int      `json:"estimated_duration_seconds"`
	Data             ItemData `json:"item_data"`
}

// ItemData is the type-specific payload of an Item. Exactly one field is
// set, matching the item's Type; the rest stay nil.
type ItemData struct {
	Song      *SongData      `json:"song,omitempty"`
	Scripture *ScriptureData `json:"scripture,omitempty"`
	Lesson    *LessonData    `json:"lesson,omitempty"`
	Prayer    *PrayerData    `json:"prayer,omitempty"`
	Notice    *NoticeData    `json:"notice,omitempty"`
}

type SongData struct {
	SongID string `json:"song_id"`
}

type ScriptureData struct {
	Reference string `json:"reference"`
	Version   string `json:"version"`
	ChapterID string `json:"chapter_id"`
}

type LessonData struct {
	LessonID   string `json:"lesson_id"`
	BlockIndex int    `json:"block_index"`
}

type PrayerData struct {
	Community string `json:"community,omitempty"`
	Room      string `json:"room,omitempty"`
}

// NoticeData backs both announcement and custom items.
type NoticeData struct {
	Content     string `json:"content"`
	Projectable bool   `json:"projectable"`
}

// Plan is a stored service plan with its ordered items.
type Plan struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ServiceDate time.Time  `json:"service_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Items       []Item     `json:"items"`
}

func (p *Plan) Completed() bool {
	return p != nil && p.CompletedAt != nil
}
