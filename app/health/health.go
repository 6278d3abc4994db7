// Package health reports host metrics and compares them with configured limits
package health

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// status values of a Report
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Thresholds are host limits, zero values disable the check
type Thresholds struct {
	CPUBelow      int     // percent
	MemoryBelow   int     // percent
	LoadAvgBelow  float64 // 1 minute load
	DiskFreeAbove int     // percent
	DiskPath      string  // defaults to /
}

// Report is a snapshot of host metrics
type Report struct {
	Status          string   `json:"status"`
	CPUPercent      float64  `json:"cpu_percent"`
	MemoryPercent   float64  `json:"memory_percent"`
	Load1           float64  `json:"load1"`
	DiskFreePercent float64  `json:"disk_free_percent"`
	Problems        []string `json:"problems,omitempty"`
}

// Checker collects host metrics
type Checker struct {
	Thresholds Thresholds

	// metric sources, gopsutil when nil
	cpuPercent func() (float64, error)
	memPercent func() (float64, error)
	loadAvg    func() (float64, error)
	diskUsed   func(path string) (float64, error)
}

// Check collects all metrics and marks the report degraded when any limit is crossed.
// Metrics that can't be read are listed as problems.
func (c *Checker) Check() Report {
	res := Report{Status: StatusOK}
	th := c.Thresholds

	if v, err := c.cpu(); err != nil {
		res.Problems = append(res.Problems, fmt.Sprintf("failed to get CPU: %v", err))
	} else {
		res.CPUPercent = v
		if th.CPUBelow > 0 && int(v) >= th.CPUBelow {
			res.Problems = append(res.Problems, fmt.Sprintf("CPU at %d%%, threshold %d%%", int(v), th.CPUBelow))
		}
	}

	if v, err := c.mem(); err != nil {
		res.Problems = append(res.Problems, fmt.Sprintf("failed to get memory: %v", err))
	} else {
		res.MemoryPercent = v
		if th.MemoryBelow > 0 && int(v) >= th.MemoryBelow {
			res.Problems = append(res.Problems, fmt.Sprintf("memory at %d%%, threshold %d%%", int(v), th.MemoryBelow))
		}
	}

	if v, err := c.load(); err != nil {
		res.Problems = append(res.Problems, fmt.Sprintf("failed to get load average: %v", err))
	} else {
		res.Load1 = v
		if th.LoadAvgBelow > 0 && v >= th.LoadAvgBelow {
			res.Problems = append(res.Problems, fmt.Sprintf("load at %.2f, threshold %.2f", v, th.LoadAvgBelow))
		}
	}

	path := th.DiskPath
	if path == "" {
		path = "/"
	}
	if used, err := c.disk(path); err != nil {
		res.Problems = append(res.Problems, fmt.Sprintf("failed to get disk usage for %s: %v", path, err))
	} else {
		res.DiskFreePercent = 100 - used
		if th.DiskFreeAbove > 0 && int(res.DiskFreePercent) < th.DiskFreeAbove {
			res.Problems = append(res.Problems, fmt.Sprintf("disk free at %d%%, need %d%% on %s",
				int(res.DiskFreePercent), th.DiskFreeAbove, path))
		}
	}

	if len(res.Problems) > 0 {
		res.Status = StatusDegraded
	}
	return res
}

func (c *Checker) cpu() (float64, error) {
	if c.cpuPercent != nil {
		return c.cpuPercent()
	}
	// zero interval compares with the previous call, doesn't block the request
	v, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("no CPU data available")
	}
	return v[0], nil
}

func (c *Checker) mem() (float64, error) {
	if c.memPercent != nil {
		return c.memPercent()
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}

func (c *Checker) load() (float64, error) {
	if c.loadAvg != nil {
		return c.loadAvg()
	}
	v, err := load.Avg()
	if err != nil {
		return 0, err
	}
	return v.Load1, nil
}

func (c *Checker) disk(path string) (float64, error) {
	if c.diskUsed != nil {
		return c.diskUsed(path)
	}
	v, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return v.UsedPercent, nil
}

// Uptime formats the duration since start rounded to seconds
func Uptime(start, now time.Time) string {
	return now.Sub(start).Round(time.Second).String()
}
