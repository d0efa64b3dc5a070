package contracts

import (
	"fmt"
	"runtime"
)

const (
	// APIVersion is the version of the HTTP and live view contracts
	APIVersion = "v1"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	APIVersion   string `json:"api_version"`
}

// NewVersionInfo fills runtime details around the build stamps
func NewVersionInfo(version, commit, buildTime string) VersionInfo {
	return VersionInfo{
		Version:      version,
		BuildTime:    buildTime,
		GitCommit:    commit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		APIVersion:   APIVersion,
	}
}

// String returns a one-line description
func (v VersionInfo) String() string {
	return fmt.Sprintf("data-explorer v%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		v.Version, v.BuildTime, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
