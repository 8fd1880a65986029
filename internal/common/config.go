package common

// Config carries cmd/plc's command-line options into the pipeline
// drivers. It mirrors the teacher's BuildConfig (internal/common/build.go
// in the original project): a plain struct of flags, not a framework.
type Config struct {
	Verbose bool
	NoColor bool
}
