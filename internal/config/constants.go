package config

// Application constants
const (
	// Application Info
	AppName    = "data-explorer"
	AppVersion = "1.0.0"

	// Pipeline defaults
	DefaultPreviewRows      = 500
	DefaultSampleSeed       = 7
	DefaultMaxSampleRows    = 100000
	SampleRowsStep          = 1000
	DefaultMaxPCAComponents = 10
	DefaultPCAComponents    = 2
	DefaultMaxUploadBytes   = 200 << 20 // 200MB

	// Download names
	CleanedExportPrefix = "cleaned_"
	PCAExportFileName   = "data_with_pca.csv"
)

// Version information, overridden at build time with -ldflags
var (
	Version   = AppVersion
	Commit    = "unknown"
	BuildTime = "unknown"
)
