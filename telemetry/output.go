package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hive/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry csvSink
	perf      csvSink
	homes     csvSink
	bookmarks csvSink
}

// csvSink is one CSV file that writes its header on first use.
type csvSink struct {
	name          string
	f             *os.File
	headerWritten bool
}

func (s *csvSink) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.f); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.f); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	sinks := []*csvSink{&om.telemetry, &om.perf, &om.homes, &om.bookmarks}
	names := []string{"telemetry.csv", "perf.csv", "homes.csv", "bookmarks.csv"}
	for i, s := range sinks {
		f, err := os.Create(filepath.Join(dir, names[i]))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", names[i], err)
		}
		s.name = names[i]
		s.f = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteHomes writes per-home totals to homes.csv.
func (om *OutputManager) WriteHomes(totals []HomeTotal) error {
	if om == nil || len(totals) == 0 {
		return nil
	}
	return om.homes.write(totals)
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, s := range []*csvSink{&om.telemetry, &om.perf, &om.homes, &om.bookmarks} {
		if s.f == nil {
			continue
		}
		if err := s.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.f = nil
	}
	return firstErr
}
