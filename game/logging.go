package game

import (
	"fmt"
	"io"
	"os"

	"github.com/pthm-cable/hive/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer = os.Stdout

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...any) {
	fmt.Fprintln(logWriter, fmt.Sprintf(format, args...))
}

// logWorldState logs a human-readable summary of the world.
func (g *Game) logWorldState(homes []telemetry.HomeTotal) {
	Logf("=== Tick %d ===", g.tick)
	Logf("Agents: %d, Items: %d, Index: %d entities in %d cells",
		len(g.byID), g.itemCount, g.index.Len(), g.index.CellCount())
	for _, h := range homes {
		Logf("  %-10s food=%-6d agents=%d", h.Home, h.Food, h.Agents)
	}
	Logf("Events logged: %d", g.events.Count())
	Logf("")
}
