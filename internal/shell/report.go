package shell

import (
	"fmt"
	"strings"

	"github.com/desertwitch/kfs/internal/clock"
	"github.com/dustin/go-humanize"
)

const reportDigestLen = 16

func (i *Interpreter) core([]string) (string, error) {
	return i.Report(), nil
}

// Report returns the system diagnostics report: uptime, drive presence,
// snapshot metadata and tree totals.
func (i *Interpreter) Report() string {
	uptime := i.clock.Ticks() / clock.TicksPerSecond
	stats := i.persist.Stats()
	fs := i.root.Stats()

	disk := "not detected"
	if stats.DrivePresent {
		disk = "attached"
	}

	digest := "none"
	if len(stats.Digest) >= reportDigestLen {
		digest = stats.Digest[:reportDigestLen]
	}

	var b strings.Builder

	b.WriteString("=== Core System Report ===\n")
	fmt.Fprintf(&b, "Uptime: %02d:%02d:%02d\n", uptime/3600, (uptime%3600)/60, uptime%60) //nolint:mnd
	fmt.Fprintf(&b, "Disk: %s\n", disk)
	fmt.Fprintf(&b, "Snapshot: %s (%d bytes), age: %ds, digest: %s\n",
		humanize.Bytes(stats.SnapshotBytes), stats.SnapshotBytes,
		stats.TicksSinceSnapshot/clock.TicksPerSecond, digest)
	fmt.Fprintf(&b, "FS: %d dirs, %d files, %s\n", fs.Dirs, fs.Files, humanize.Bytes(fs.Bytes))
	b.WriteString("==========================")

	return b.String()
}
