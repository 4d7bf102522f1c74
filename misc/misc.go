// Package misc keeps build time information.
package misc

// Set with -ldflags "-X headfold/misc.version=... -X headfold/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "headfold"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
