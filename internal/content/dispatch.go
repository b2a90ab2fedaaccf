// Package content maps plan items to operator views and projection
// payloads. Dispatch is a pure switch on the item type; unrecognized types
// fall back to a neutral view instead of failing.
package content

import (
	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/catalog"
	"github.com/tbeech/runsheet/internal/plan"
)

type ViewKind string

const (
	ViewSong      ViewKind = "song"
	ViewScripture ViewKind = "scripture"
	ViewLesson    ViewKind = "lesson"
	ViewPrayer    ViewKind = "prayer"
	ViewNotice    ViewKind = "notice"
	ViewFallback  ViewKind = "fallback"
)

// View is what the operator's content pane renders for one item.
type View struct {
	Kind     ViewKind `json:"kind"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Body     string   `json:"body,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Resolved carries the asynchronously loaded content behind the current
// item. Missing checks whether the referenced record could not be found.
type Resolved struct {
	Song    *audio.Song      `json:"song,omitempty"`
	Chapter *catalog.Chapter `json:"chapter,omitempty"`
	Lesson  *catalog.Lesson  `json:"lesson,omitempty"`
	Missing bool             `json:"missing,omitempty"`
}

// Render dispatches on the item type. Pure: same item, same view.
func Render(item plan.Item) View {
	switch item.Type {
	case plan.ItemTypeSong:
		return View{Kind: ViewSong, Title: item.Title, Notes: item.Notes}
	case plan.ItemTypeScripture:
		v := View{Kind: ViewScripture, Title: item.Title, Notes: item.Notes}
		if item.Data.Scripture != nil {
			v.Subtitle = item.Data.Scripture.Reference + " (" + item.Data.Scripture.Version + ")"
		}
		return v
	case plan.ItemTypeLessonBlock:
		return View{Kind: ViewLesson, Title: item.Title, Notes: item.Notes}
	case plan.ItemTypePrayerTime:
		v := View{Kind: ViewPrayer, Title: item.Title, Notes: item.Notes}
		if item.Data.Prayer != nil {
			v.Subtitle = prayerScope(item.Data.Prayer)
		}
		return v
	case plan.ItemTypeAnnouncement, plan.ItemTypeCustom:
		v := View{Kind: ViewNotice, Title: item.Title, Notes: item.Notes}
		if item.Data.Notice != nil {
			v.Body = item.Data.Notice.Content
		}
		return v
	default:
		return View{Kind: ViewFallback, Title: item.Title}
	}
}

func prayerScope(p *plan.PrayerData) string {
	switch {
	case p.Community != "" && p.Room != "":
		return p.Community + " / " + p.Room
	case p.Community != "":
		return p.Community
	case p.Room != "":
		return p.Room
	}
	return ""
}

// Payload is a full-screen frame for the audience display.
type Payload struct {
	Kind      ViewKind `json:"kind"`
	Title     string   `json:"title"`
	Reference string   `json:"reference,omitempty"`
	Lines     []string `json:"lines,omitempty"`
}

// Projection builds the audience frame for an item, or reports that the
// item cannot be projected right now. Song, scripture, and lesson items
// need their content resolved first; announcement and custom items project
// only when their own flag allows it.
func Projection(item plan.Item, res Resolved) (Payload, bool) {
	switch item.Type {
	case plan.ItemTypeSong:
		if res.Song == nil {
			return Payload{}, false
		}
		return Payload{
			Kind:      ViewSong,
			Title:     res.Song.Title,
			Reference: res.Song.Artist,
		}, true

	case plan.ItemTypeScripture:
		if res.Chapter == nil {
			return Payload{}, false
		}
		return Payload{
			Kind:      ViewScripture,
			Title:     item.Title,
			Reference: res.Chapter.Reference + " (" + res.Chapter.Version + ")",
			Lines:     res.Chapter.Verses,
		}, true

	case plan.ItemTypeLessonBlock:
		if res.Lesson == nil {
			return Payload{}, false
		}
		blocks := res.Lesson.ProjectableBlocks()
		if len(blocks) == 0 {
			return Payload{}, false
		}
		lines := make([]string, 0, len(blocks))
		for _, b := range blocks {
			lines = append(lines, b.Content)
		}
		return Payload{
			Kind:  ViewLesson,
			Title: res.Lesson.Title,
			Lines: lines,
		}, true

	case plan.ItemTypeAnnouncement, plan.ItemTypeCustom:
		if item.Data.Notice == nil || !item.Data.Notice.Projectable {
			return Payload{}, false
		}
		return Payload{
			Kind:  ViewNotice,
			Title: item.Title,
			Lines: []string{item.Data.Notice.Content},
		}, true
	}

	return Payload{}, false
}
