// Package flags holds the cli.Flag category labels shared by blockchat's
// command-line entrypoints, the same "one constant per --help group"
// convention cmd/gtos/cmd/toskey used to keep a long flag listing
// readable.
package flags

import "github.com/urfave/cli/v2"

const (
	NetworkingCategory = "NETWORKING"
	ConsensusCategory  = "CONSENSUS"
	BootstrapCategory  = "BOOTSTRAP"
	MiscCategory       = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
