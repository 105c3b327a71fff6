// Package cpuspec sizes the preprocessing worker pool. On hybrid CPUs
// the efficiency cores slow a compute-bound pool down more than they
// help, so the pool is sized to the performance cores when the model is
// recognized.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec describes the detected processor.
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec detects the running CPU and its performance core count.
// PerformanceCores is zero when the model is not recognized.
func GetCPUSpec() CPUSpec {
	brand := cpuid.CPU.BrandName
	return CPUSpec{
		BrandName:        brand,
		PerformanceCores: performanceCores(brand),
	}
}

// GetOptimalThreadCount returns the worker count for compute-bound
// signal processing: the performance cores on a recognized hybrid CPU,
// otherwise every logical core. Never exceeds runtime.NumCPU, which
// matters inside VMs and cgroup limits.
func (c CPUSpec) GetOptimalThreadCount() int {
	available := runtime.NumCPU()
	if c.PerformanceCores > 0 && c.PerformanceCores < available {
		return c.PerformanceCores
	}
	if cores := cpuid.CPU.LogicalCores; cores > 0 && cores < available {
		return cores
	}
	return available
}

// intelPCores maps hybrid Core i 12th-14th gen model numbers to their
// performance core count.
var intelPCores = map[string]int{
	"12900": 8, "12700": 8, "12600": 6, "12400": 6, "12100": 4,
	"13900": 8, "13700": 8, "13600": 6, "13500": 6, "13400": 6, "13100": 4,
	"14900": 8, "14700": 8, "14600": 6, "14400": 6, "14100": 4,
}

// intelUltraPCores maps Core Ultra "<series> <model>" to performance
// cores.
var intelUltraPCores = map[string]int{
	"9 285": 8,
	"7 265": 8, "7 255": 8,
	"5 235": 6, "5 225": 4,
}

// applePCores maps Apple Silicon chip names to performance cores. For
// variants sold with two core counts the larger one is used.
var applePCores = map[string]int{
	"m1": 4, "m1 pro": 8, "m1 max": 8, "m1 ultra": 16,
	"m2": 4, "m2 pro": 8, "m2 max": 12, "m2 ultra": 24,
	"m3": 4, "m3 pro": 8, "m3 max": 12, "m3 ultra": 24,
	"m4": 6, "m4 pro": 8, "m4 max": 12,
}

var (
	intelCoreRegex  = regexp.MustCompile(`intel.*core.*i[3579]-(\d{5})`)
	intelUltraRegex = regexp.MustCompile(`intel.*core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3})`)
	appleRegex      = regexp.MustCompile(`apple\s+(m\d\s*(?:pro|max|ultra)?)`)
)

func performanceCores(brand string) int {
	brand = strings.ToLower(brand)

	if m := intelCoreRegex.FindStringSubmatch(brand); m != nil {
		return intelPCores[m[1]]
	}
	if m := intelUltraRegex.FindStringSubmatch(brand); m != nil {
		return intelUltraPCores[m[1]+" "+m[2]]
	}
	if m := appleRegex.FindStringSubmatch(brand); m != nil {
		return applePCores[strings.Join(strings.Fields(m[1]), " ")]
	}
	return 0
}
