package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstDelivery        BookmarkType = "first_delivery"
	BookmarkDeliveryBreakthrough BookmarkType = "delivery_breakthrough"
	BookmarkItemsDepleted        BookmarkType = "items_depleted"
	BookmarkRingDrift            BookmarkType = "ring_drift"
	BookmarkSteadyForaging       BookmarkType = "steady_foraging"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags notable windows in a run.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	delivered     bool
	hadItems      bool
	depleted      bool
	steadyFlagged bool
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

	if !bd.delivered && stats.Deliveries > 0 {
		bd.delivered = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFirstDelivery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("First %d deliveries carrying %d units", stats.Deliveries, stats.Delivered),
		})
	}

	if stats.ItemsRemaining > 0 {
		bd.hadItems = true
	} else if bd.hadItems && !bd.depleted {
		bd.depleted = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkItemsDepleted,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("All items collected after %.1fs", stats.SimTimeSec),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkDeliveryBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkRingDrift(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteadyForaging(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
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

func (bd *BookmarkDetector) checkDeliveryBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var total int
	for _, h := range history {
		total += h.Delivered
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 || stats.Delivered < 5 {
		return nil
	}
	if float64(stats.Delivered) > avg*2 {
		return &Bookmark{
			Type:        BookmarkDeliveryBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Delivered %d is %.1fx average (%.1f)", stats.Delivered, float64(stats.Delivered)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRingDrift(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var sum float64
	for _, h := range history {
		sum += h.RingErrP90
	}
	avg := sum / float64(len(history))
	if avg <= 0 || stats.RingErrP90 < 3 {
		return nil
	}
	if stats.RingErrP90 > avg*2 {
		return &Bookmark{
			Type:        BookmarkRingDrift,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Ring error p90 %.2f is %.1fx average (%.2f)", stats.RingErrP90, stats.RingErrP90/avg, avg),
		}
	}
	return nil
}

// checkSteadyForaging fires once when deliveries stay within 20% of their
// mean for five consecutive windows.
func (bd *BookmarkDetector) checkSteadyForaging(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 4 || stats.Delivered == 0 {
		return nil
	}

	recent := make([]float64, 0, 5)
	for i := 0; i < 4; i++ {
		idx := (bd.historyIdx - 1 - i + bd.historySize) % bd.historySize
		recent = append(recent, float64(bd.history[idx].Delivered))
	}
	recent = append(recent, float64(stats.Delivered))

	mean, std := stat.PopMeanStdDev(recent, nil)
	if mean == 0 || std/mean > 0.2 {
		bd.steadyFlagged = false
		return nil
	}
	if bd.steadyFlagged {
		return nil
	}
	bd.steadyFlagged = true
	return &Bookmark{
		Type:        BookmarkSteadyForaging,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Deliveries steady at %.1f per window (cv %.2f)", mean, std/mean),
	}
}
