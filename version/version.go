// Package version provides the horcrux-recovery version command. Version
// and Commit are set at build time:
//
//	go build -X github.com/strangelove-ventures/horcrux-recovery/version.Version=1.0 \
//	 -X github.com/strangelove-ventures/horcrux-recovery/version.Commit=f0f7b7dab7e36c20b757cebce0e8f4fc5b95de60
package version

import (
	"fmt"
	"runtime"
	dbg "runtime/debug"
)

var (
	// application's version string
	Version = ""
	// commit
	Commit = ""
)

// Info defines the application version information.
type Info struct {
	Version           string `json:"version" yaml:"version"`
	GitCommit         string `json:"commit" yaml:"commit"`
	GoVersion         string `json:"go_version" yaml:"go_version"`
	BtcdVersion       string `json:"btcd_version" yaml:"btcd_version"`
	GoEthereumVersion string `json:"go_ethereum_version" yaml:"go_ethereum_version"`
	CometBFTVersion   string `json:"cometbft_version" yaml:"cometbft_version"`
}

// NewInfo reads the versions of the curve and logging dependencies from the
// binary's build info.
func NewInfo() Info {
	dependencyVersions := map[string]string{}
	if bi, ok := dbg.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			dependencyVersions[dep.Path] = dep.Version
		}
	}

	return Info{
		Version:           Version,
		GitCommit:         Commit,
		GoVersion:         fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		BtcdVersion:       dependencyVersions["github.com/btcsuite/btcd/btcutil"],
		GoEthereumVersion: dependencyVersions["github.com/ethereum/go-ethereum"],
		CometBFTVersion:   dependencyVersions["github.com/cometbft/cometbft"],
	}
}

func (vi Info) String() string {
	return fmt.Sprintf(`horcrux-recovery: %s
git commit: %s
go version: %s
btcd version: %s
go-ethereum version: %s
cometbft version: %s
`,
		vi.Version, vi.GitCommit, vi.GoVersion, vi.BtcdVersion, vi.GoEthereumVersion, vi.CometBFTVersion)
}
