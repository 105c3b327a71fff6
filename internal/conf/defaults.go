// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration. The defaults describe a
// 400 Hz single-lead recording pipeline.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "holterscan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "holterscan.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)
	viper.SetDefault("main.metrics.enabled", false)
	viper.SetDefault("main.metrics.addr", "localhost:8090")

	viper.SetDefault("dataset.dir", "dataset/")
	viper.SetDefault("dataset.signaldir", "data")
	viper.SetDefault("dataset.referencedir", "ref")

	viper.SetDefault("ecg.samplerate", 400)
	viper.SetDefault("ecg.threads", 0)
	viper.SetDefault("ecg.detector", "adaptive")

	// 200 ms and 600 ms median windows for baseline wander removal
	viper.SetDefault("ecg.baseline.enabled", true)
	viper.SetDefault("ecg.baseline.window1", 0.2)
	viper.SetDefault("ecg.baseline.window2", 0.6)

	viper.SetDefault("ecg.bandpass.enabled", true)
	viper.SetDefault("ecg.bandpass.low", 0.5)
	viper.SetDefault("ecg.bandpass.high", 45.0)
	viper.SetDefault("ecg.bandpass.orderfactor", 0.3)

	viper.SetDefault("ecg.epoch.length", 600.0)
	viper.SetDefault("ecg.epoch.overlap", 10.0)
	viper.SetDefault("ecg.epoch.mintail", 30.0)

	viper.SetDefault("matching.tolerance", 0.15)
	viper.SetDefault("matching.leftmargin", 100)
	viper.SetDefault("matching.rightmargin", 100)
	viper.SetDefault("matching.epochlength", 3600.0)

	viper.SetDefault("output.dir", "artifacts/")
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "holterscan.db")
}
