package system

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time resource report of the host and this process
type Stats struct {
	Build      string
	Elapsed    time.Duration
	CPUs       int
	CPUPercent float64
	MemTotal   uint64
	MemUsed    uint64
	ProcessRSS uint64
	ProcessCPU float64
	Goroutines int
	HeapAlloc  uint64
	NumGC      uint32
	Frames     int
	Textures   int
	Fetches    int64
}

// Collect gathers host and process figures. Individual probes that fail
// leave their fields zero.
func Collect(ctx context.Context, start time.Time) Stats {
	st := Stats{
		Elapsed:    time.Since(start),
		CPUs:       runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.HeapAlloc = ms.HeapAlloc
	st.NumGC = ms.NumGC

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		st.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		st.MemTotal = vm.Total
		st.MemUsed = vm.Used
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfoWithContext(ctx); err == nil {
			st.ProcessRSS = info.RSS
		}
		if pct, err := p.CPUPercentWithContext(ctx); err == nil {
			st.ProcessCPU = pct
		}
	}
	return st
}

// Report prints the performance report in the CLI's bracketed style
func (s Stats) Report(w io.Writer) {
	fmt.Fprintln(w, "--- [PERFORMANCE REPORT] ---")
	if s.Build != "" {
		fmt.Fprintf(w, "[*] Build:       %s\n", s.Build)
	}
	fmt.Fprintf(w, "[*] Wall time:   %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "[*] Host CPU:    %d cores, %.1f%% busy\n", s.CPUs, s.CPUPercent)
	fmt.Fprintf(w, "[*] Host memory: %s / %s\n", bytesLabel(s.MemUsed), bytesLabel(s.MemTotal))
	fmt.Fprintf(w, "[*] Process:     %s RSS, %.1f%% CPU, %d goroutines\n", bytesLabel(s.ProcessRSS), s.ProcessCPU, s.Goroutines)
	fmt.Fprintf(w, "[*] Go heap:     %s, %d GC cycles\n", bytesLabel(s.HeapAlloc), s.NumGC)
	if s.Frames > 0 || s.Textures > 0 {
		fmt.Fprintf(w, "[*] Preview:     %d frames, %d textures, %d fetches\n", s.Frames, s.Textures, s.Fetches)
	}
	fmt.Fprintln(w, "-----------------------------")
}

func bytesLabel(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
