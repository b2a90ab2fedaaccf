package plan

import "testing"

func songItem(id, title string) Item {
	return Item{ID: id, Type: ItemTypeSong, Title: title, Data: ItemData{Song: &SongData{SongID: "s-" + id}}}
}

func lessonItem(id, lessonID, title string, block int) Item {
	return Item{ID: id, Type: ItemTypeLessonBlock, Title: title, Data: ItemData{Lesson: &LessonData{LessonID: lessonID, BlockIndex: block}}}
}

func scriptureItem(id, ref string) Item {
	return Item{ID: id, Type: ItemTypeScripture, Title: ref, Data: ItemData{Scripture: &ScriptureData{Reference: ref, ChapterID: "ch-" + id}}}
}

func checkPartition(t *testing.T, groups []StepGroup, n int) {
	t.Helper()
	if n == 0 {
		if len(groups) != 0 {
			t.Fatalf("expected no groups for empty input, got %d", len(groups))
		}
		return
	}
	if len(groups) == 0 {
		t.Fatalf("expected groups for %d items, got none", n)
	}
	if groups[0].StartIndex != 0 {
		t.Errorf("first group starts at %d, want 0", groups[0].StartIndex)
	}
	for i := 0; i < len(groups)-1; i++ {
		if groups[i].EndIndex+1 != groups[i+1].StartIndex {
			t.Errorf("gap or overlap between group %d (end %d) and group %d (start %d)",
				i, groups[i].EndIndex, i+1, groups[i+1].StartIndex)
		}
	}
	if last := groups[len(groups)-1]; last.EndIndex != n-1 {
		t.Errorf("last group ends at %d, want %d", last.EndIndex, n-1)
	}
	total := 0
	for _, g := range groups {
		total += g.Size()
	}
	if total != n {
		t.Errorf("group sizes sum to %d, want %d", total, n)
	}
}

func TestComputeGroupsEmpty(t *testing.T) {
	checkPartition(t, ComputeGroups(nil), 0)
}

func TestComputeGroupsSingletons(t *testing.T) {
	items := []Item{
		songItem("1", "Amazing Grace"),
		scriptureItem("2", "John 10"),
		{ID: "3", Type: ItemTypePrayerTime, Title: "Prayer"},
	}
	groups := ComputeGroups(items)
	checkPartition(t, groups, len(items))

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	for i, g := range groups {
		if g.StartIndex != i || g.EndIndex != i {
			t.Errorf("group %d = [%d,%d], want singleton at %d", i, g.StartIndex, g.EndIndex, i)
		}
		if g.Title != items[i].Title {
			t.Errorf("group %d title = %q, want %q", i, g.Title, items[i].Title)
		}
	}
}

func TestComputeGroupsMergesSameLesson(t *testing.T) {
	items := []Item{
		songItem("1", "Song A"),
		lessonItem("2", "L", "Introduction: The Good Shepherd", 0),
		lessonItem("3", "L", "Reading: The Good Shepherd", 1),
		scriptureItem("4", "Psalm 23"),
	}
	groups := ComputeGroups(items)
	checkPartition(t, groups, len(items))

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[1].StartIndex != 1 || groups[1].EndIndex != 2 {
		t.Errorf("lesson group = [%d,%d], want [1,2]", groups[1].StartIndex, groups[1].EndIndex)
	}
	if groups[1].Title != "The Good Shepherd" {
		t.Errorf("lesson group title = %q, want %q", groups[1].Title, "The Good Shepherd")
	}
	if groups[1].Type != ItemTypeLessonBlock {
		t.Errorf("lesson group type = %q", groups[1].Type)
	}
}

func TestComputeGroupsLessonBoundaries(t *testing.T) {
	items := []Item{
		lessonItem("1", "A", "Part 1: Alpha", 0),
		lessonItem("2", "A", "Part 2: Alpha", 1),
		lessonItem("3", "B", "Part 1: Beta", 0),
		songItem("4", "Doxology"),
		lessonItem("5", "B", "Part 2: Beta", 1),
	}
	groups := ComputeGroups(items)
	checkPartition(t, groups, len(items))

	// Lesson change splits A from B; the song splits B's two blocks apart.
	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4", len(groups))
	}
	if groups[0].Size() != 2 {
		t.Errorf("lesson A group size = %d, want 2", groups[0].Size())
	}
	if groups[1].Size() != 1 || groups[1].Title != "Beta" {
		t.Errorf("lesson B first group = %+v", groups[1])
	}
	if groups[3].Size() != 1 || groups[3].Title != "Beta" {
		t.Errorf("lesson B second group = %+v", groups[3])
	}
}

func TestComputeGroupsDeterministic(t *testing.T) {
	items := []Item{
		songItem("1", "Song A"),
		lessonItem("2", "L", "Intro: Lesson", 0),
		lessonItem("3", "L", "Body: Lesson", 1),
	}
	first := ComputeGroups(items)
	second := ComputeGroups(items)
	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("group %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLessonTitleWithoutColon(t *testing.T) {
	items := []Item{lessonItem("1", "L", "Untitled Lesson", 0)}
	groups := ComputeGroups(items)
	if groups[0].Title != "Untitled Lesson" {
		t.Errorf("title = %q, want item title unchanged", groups[0].Title)
	}
}

func TestGroupIndexFor(t *testing.T) {
	groups := []StepGroup{
		{StartIndex: 0, EndIndex: 0},
		{StartIndex: 1, EndIndex: 2},
		{StartIndex: 3, EndIndex: 3},
	}
	cases := []struct {
		index int
		want  int
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 2}, {4, -1}, {-1, -1},
	}
	for _, c := range cases {
		if got := GroupIndexFor(groups, c.index); got != c.want {
			t.Errorf("GroupIndexFor(%d) = %d, want %d", c.index, got, c.want)
		}
	}
}
