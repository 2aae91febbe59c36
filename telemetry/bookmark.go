package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkDivisionBurst     BookmarkType = "division_burst"
	BookmarkTortuosityJump    BookmarkType = "tortuosity_jump"
	BookmarkVolumeCrash       BookmarkType = "volume_crash"
	BookmarkStableGrowth      BookmarkType = "stable_growth"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Step        int
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a running simulation
// from its window-by-window stats.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentVolumePeak   float64
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkDivisionBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkTortuosityJump(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkVolumeCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableGrowth(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.TotalVolume > bd.recentVolumePeak {
		bd.recentVolumePeak = stats.TotalVolume
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkDivisionBurst(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalDivisions int
	for _, h := range history {
		totalDivisions += h.Divisions
	}
	avgDivisions := float64(totalDivisions) / float64(len(history))
	if avgDivisions == 0 {
		return nil
	}

	if float64(stats.Divisions) > avgDivisions*2.0 && stats.Divisions >= 3 {
		return &Bookmark{
			Type:        BookmarkDivisionBurst,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("%d divisions is %.1fx the rolling average (%.1f)", stats.Divisions, float64(stats.Divisions)/avgDivisions, avgDivisions),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkTortuosityJump(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var totalTortuosity float64
	for _, h := range history {
		totalTortuosity += h.Tortuosity
	}
	avgTortuosity := totalTortuosity / float64(len(history))
	if avgTortuosity == 0 {
		return nil
	}

	if stats.Tortuosity > avgTortuosity*1.5 {
		return &Bookmark{
			Type:        BookmarkTortuosityJump,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("tortuosity %.3f is %.1fx average (%.3f)", stats.Tortuosity, stats.Tortuosity/avgTortuosity, avgTortuosity),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkVolumeCrash(stats WindowStats) *Bookmark {
	if bd.recentVolumePeak == 0 {
		return nil
	}

	dropPercent := 1.0 - stats.TotalVolume/bd.recentVolumePeak
	if dropPercent > 0.30 {
		oldPeak := bd.recentVolumePeak
		bd.recentVolumePeak = stats.TotalVolume

		return &Bookmark{
			Type:        BookmarkVolumeCrash,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("total volume crashed %.0f%% from peak %.4f to %.4f", dropPercent*100, oldPeak, stats.TotalVolume),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableGrowth(stats WindowStats) *Bookmark {
	if stats.NumElements < 2 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var volSum float64
	for _, h := range recent {
		volSum += h.TotalVolume
	}
	volMean := volSum / 4

	var volVar float64
	for _, h := range recent {
		d := h.TotalVolume - volMean
		volVar += d * d
	}
	volVar /= 4

	cv := 0.0
	if volMean > 0 {
		cv = volVar / (volMean * volMean)
	}

	if cv < 0.04 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkStableGrowth,
			Step:        stats.WindowEndStep,
			Description: fmt.Sprintf("total volume stable near %.4f across %d elements over 5+ windows", volMean, stats.NumElements),
		}
	}

	return nil
}
