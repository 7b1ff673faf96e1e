package app

import (
	"github.com/spf13/cobra"

	"github.com/harshilnayi/BlockScope/internal/cli"
)

func BuildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "blockscope",
		Short:        "Static vulnerability scanner for Solidity smart contracts",
		SilenceUsage: true,
	}
	cli.AddCommands(root)
	return root
}
