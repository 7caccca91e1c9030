// Package metrics defines the build-metrics Recorder interface. Components
// receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks and costs
// nothing when disabled.
package metrics

// Recorder receives build pipeline measurements.
type Recorder interface {
	// PageBuilt records one finished page.
	PageBuilt()
	// DiagnosticsReported records diagnostics emitted for a file, by severity.
	DiagnosticsReported(severity string, count int)
	// AssetEvent records one filesystem change event on a watched asset.
	AssetEvent()
	// BuildCompleted records a full build with its duration in seconds.
	BuildCompleted(seconds float64)
}

// NoopRecorder is the default Recorder; every method does nothing.
type NoopRecorder struct{}

func (NoopRecorder) PageBuilt()                                     {}
func (NoopRecorder) DiagnosticsReported(severity string, count int) {}
func (NoopRecorder) AssetEvent()                                    {}
func (NoopRecorder) BuildCompleted(seconds float64)                 {}
