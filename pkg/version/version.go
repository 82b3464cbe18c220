package version

import "fmt"

// Set at build time with -ldflags "-X github.com/opencost/gputco/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "HEAD"
)

func FriendlyVersion() string {
	return fmt.Sprintf("gputco %s (%s)", Version, GitCommit)
}
