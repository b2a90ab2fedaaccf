package plan

import "strings"

// StepGroup is a contiguous range of plan items presented and navigated as
// a single unit. Groups returned by ComputeGroups partition the item list
// exactly: no gaps, no overlaps, in order.
type StepGroup struct {
	StartIndex int      `json:"start_index"`
	EndIndex   int      `json:"end_index"`
	Title      string   `json:"title"`
	Type       ItemType `json:"type"`
}

func (g StepGroup) Contains(index int) bool {
	return index >= g.StartIndex && index <= g.EndIndex
}

func (g StepGroup) Size() int {
	return g.EndIndex - g.StartIndex + 1
}

// ComputeGroups collapses consecutive lesson_block items sharing a lesson
// into one group; every other item forms a singleton group. Pure and
// deterministic: the same input always yields the same groups.
func ComputeGroups(items []Item) []StepGroup {
	groups := make([]StepGroup, 0, len(items))

	for i := 0; i < len(items); {
		item := items[i]

		if item.Type != ItemTypeLessonBlock || item.Data.Lesson == nil {
			groups = append(groups, StepGroup{
				StartIndex: i,
				EndIndex:   i,
				Title:      item.Title,
				Type:       item.Type,
			})
			i++
			continue
		}

		lessonID := item.Data.Lesson.LessonID
		end := i
		for end+1 < len(items) {
			next := items[end+1]
			if next.Type != ItemTypeLessonBlock || next.Data.Lesson == nil || next.Data.Lesson.LessonID != lessonID {
				break
			}
			end++
		}

		groups = append(groups, StepGroup{
			StartIndex: i,
			EndIndex:   end,
			Title:      lessonTitle(item.Title),
			Type:       ItemTypeLessonBlock,
		})
		i = end + 1
	}

	return groups
}

// lessonTitle strips the "<BlockLabel>: " prefix a lesson block item
// carries, leaving the lesson's own title.
func lessonTitle(itemTitle string) string {
	if idx := strings.Index(itemTitle, ":"); idx >= 0 {
		return strings.TrimSpace(itemTitle[idx+1:])
	}
	return itemTitle
}

// GroupIndexFor returns the index of the group containing the given raw
// item index, or -1 when the index falls outside every group.
func GroupIndexFor(groups []StepGroup, itemIndex int) int {
	for i, g := range groups {
		if g.Contains(itemIndex) {
			return i
		}
	}
	return -1
}
