package health

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v float64) func() (float64, error) {
	return func() (float64, error) { return v, nil }
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name         string
		th           Thresholds
		cpu, mem, ld float64
		diskUsed     float64
		wantStatus   string
		wantProblems []string
	}{
		{name: "no thresholds", cpu: 99, mem: 99, ld: 10, diskUsed: 99, wantStatus: StatusOK},
		{name: "all within limits", th: Thresholds{CPUBelow: 90, MemoryBelow: 90, LoadAvgBelow: 4, DiskFreeAbove: 10},
			cpu: 10, mem: 50, ld: 0.5, diskUsed: 40, wantStatus: StatusOK},
		{name: "memory over limit", th: Thresholds{MemoryBelow: 80}, mem: 85, wantStatus: StatusDegraded,
			wantProblems: []string{"memory at 85%, threshold 80%"}},
		{name: "cpu and load over limit", th: Thresholds{CPUBelow: 50, LoadAvgBelow: 2}, cpu: 75, ld: 3.5,
			wantStatus: StatusDegraded, wantProblems: []string{"CPU at 75%, threshold 50%", "load at 3.50, threshold 2.00"}},
		{name: "disk almost full", th: Thresholds{DiskFreeAbove: 10, DiskPath: "/data"}, diskUsed: 95,
			wantStatus: StatusDegraded, wantProblems: []string{"disk free at 5%, need 10% on /data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			c := Checker{Thresholds: tt.th, cpuPercent: fixed(tt.cpu), memPercent: fixed(tt.mem), loadAvg: fixed(tt.ld),
				diskUsed: func(path string) (float64, error) { gotPath = path; return tt.diskUsed, nil }}
			rep := c.Check()
			assert.Equal(t, tt.wantStatus, rep.Status)
			assert.Equal(t, tt.wantProblems, rep.Problems)
			assert.InDelta(t, tt.mem, rep.MemoryPercent, 0.001)
			assert.InDelta(t, 100-tt.diskUsed, rep.DiskFreePercent, 0.001)
			if tt.th.DiskPath == "" {
				assert.Equal(t, "/", gotPath)
			}
		})
	}
}

func TestChecker_CheckMetricError(t *testing.T) {
	c := Checker{cpuPercent: fixed(1), memPercent: func() (float64, error) { return 0, errors.New("no proc") },
		loadAvg: fixed(0.1), diskUsed: func(string) (float64, error) { return 10, nil }}
	rep := c.Check()
	assert.Equal(t, StatusDegraded, rep.Status)
	require.Len(t, rep.Problems, 1)
	assert.Equal(t, "failed to get memory: no proc", rep.Problems[0])
}

func TestChecker_CheckRealSystem(t *testing.T) {
	c := Checker{Thresholds: Thresholds{DiskFreeAbove: 1}}
	rep := c.Check()
	assert.GreaterOrEqual(t, rep.MemoryPercent, 0.0)
	assert.LessOrEqual(t, rep.DiskFreePercent, 100.0)
	t.Logf("host report: %+v", rep)
}

func TestUptime(t *testing.T) {
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "1h2m3s", Uptime(start, start.Add(time.Hour+2*time.Minute+3*time.Second+400*time.Millisecond)))
}
