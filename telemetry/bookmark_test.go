package telemetry

import "testing"

func TestBookmarkDetectorDivisionBurst(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, Divisions: 1})
	}

	bookmarks := bd.Check(WindowStats{WindowEndStep: 500, Divisions: 5})

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkDivisionBurst {
			found = true
		}
	}
	if !found {
		t.Error("expected a division_burst bookmark")
	}
}

func TestBookmarkDetectorVolumeCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, TotalVolume: 1.0, NumElements: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndStep: 500, TotalVolume: 0.4, NumElements: 10})

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkVolumeCrash {
			found = true
		}
	}
	if !found {
		t.Error("expected a volume_crash bookmark")
	}
}

func TestBookmarkDetectorTortuosityJump(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndStep: i * 100, Tortuosity: 1.0})
	}

	bookmarks := bd.Check(WindowStats{WindowEndStep: 500, Tortuosity: 2.0})

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkTortuosityJump {
			found = true
		}
	}
	if !found {
		t.Error("expected a tortuosity_jump bookmark")
	}
}

func TestBookmarkDetectorStableGrowth(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// The bookmark fires once, on the fifth consecutive stable window, so
	// collect the results of every window rather than only the last.
	var bookmarks []Bookmark
	for i := 0; i < 10; i++ {
		bookmarks = append(bookmarks, bd.Check(WindowStats{WindowEndStep: i * 100, TotalVolume: 1.0, NumElements: 10})...)
	}

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkStableGrowth {
			found = true
		}
	}
	if !found {
		t.Error("expected a stable_growth bookmark once volume holds steady across enough windows")
	}
}
