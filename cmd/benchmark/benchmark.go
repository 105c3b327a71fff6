// Package benchmark implements the preprocessing throughput benchmark.
package benchmark

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/ecg"
)

var (
	minutes     int
	compareMode bool
)

// Command creates the benchmark command, which runs the preprocessing
// pipeline over a synthetic recording and reports throughput.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run preprocessing throughput benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes < 1 || minutes > 24*60 {
				return fmt.Errorf("duration must be between 1 and 1440 minutes, got %d", minutes)
			}
			if compareMode {
				return runWorkerComparison(cmd, settings)
			}
			return runBenchmark(cmd, settings, settings.ECG.Threads)
		},
	}

	cmd.Flags().IntVarP(&minutes, "minutes", "m", 30, "synthetic recording length in minutes (1-1440)")
	cmd.Flags().BoolVar(&compareMode, "compare", false, "compare serial against the configured worker count")

	return cmd
}

func runBenchmark(cmd *cobra.Command, settings *conf.Settings, workers int) error {
	cfg := ecg.ConfigFromSettings(settings)
	cfg.Workers = workers

	fs := settings.ECG.SampleRate
	sig := syntheticECG(minutes*60*fs, fs)

	start := time.Now()
	res, err := ecg.ParallelPreprocess(cmd.Context(), sig, fs, cfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	speed := float64(len(sig)) / float64(fs) / elapsed.Seconds()
	fmt.Printf("Workers: %d\n", workers)
	fmt.Printf("Signal:  %d min at %d Hz (%d samples)\n", minutes, fs, len(sig))
	fmt.Printf("Elapsed: %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Beats:   %d\n", len(res.Beats))
	fmt.Printf("Speed:   %.1fx realtime\n\n", speed)
	return nil
}

func runWorkerComparison(cmd *cobra.Command, settings *conf.Settings) error {
	if err := runBenchmark(cmd, settings, 1); err != nil {
		return err
	}
	return runBenchmark(cmd, settings, settings.ECG.Threads)
}

// syntheticECG builds a plausible single-lead signal: a 72 bpm beat
// train of narrow spikes over baseline wander and measurement noise.
func syntheticECG(n, fs int) []float64 {
	rng := rand.New(rand.NewSource(1))
	sig := make([]float64, n)

	rr := int(float64(fs) * 60.0 / 72.0)
	qrsWidth := fs / 25
	for i := range sig {
		// Baseline wander plus noise.
		sig[i] = 0.3*math.Sin(2*math.Pi*0.25*float64(i)/float64(fs)) + 0.02*rng.NormFloat64()
		// Gaussian-shaped QRS bump.
		phase := i % rr
		d := float64(phase - rr/2)
		sig[i] += 1.2 * math.Exp(-d*d/float64(2*qrsWidth*qrsWidth))
	}
	return sig
}
