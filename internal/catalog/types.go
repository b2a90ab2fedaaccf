package catalog

import "errors"

// ErrNotFound is returned when an item references a song, lesson, or
// chapter that does not exist. Callers render a per-pane placeholder and
// keep the session running.
var ErrNotFound = errors.New("catalog entry not found")

type Lesson struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Blocks []LessonBlock `json:"blocks"`
}

// ProjectableBlocks returns the blocks flagged for the audience display.
func (l Lesson) ProjectableBlocks() []LessonBlock {
	var out []LessonBlock
	for _, b := range l.Blocks {
		if b.Projectable {
			out = append(out, b)
		}
	}
	return out
}

type LessonBlock struct {
	Label       string `json:"label"`
	Content     string `json:"content"`
	Projectable bool   `json:"projectable"`
}

type Chapter struct {
	ID        string   `json:"id"`
	Reference string   `json:"reference"`
	Version   string   `json:"version"`
	Verses    []string `json:"verses"`
}
