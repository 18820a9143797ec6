// Package version holds build metadata. The values are set through -ldflags,
// ie:
//
//	go build -ldflags "-X github.com/rafaelespinoza/pgsh/internal/version.Tag=v0.1.0" ./drivers/postgres/pgsh
package version

// These are pieces of version metadata that can be set through -ldflags.
var (
	BranchName string
	BuildTime  string
	Driver     string
	CommitHash string
	GoVersion  string
	Tag        string
)
