package version

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const flagLong = "long"

// NewVersionCommand returns a CLI command printing the version information.
// Without --long only the version string is printed, with it the full Info
// is rendered by printInfo.
func NewVersionCommand(printInfo func(out io.Writer, v any) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the application binary version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := NewInfo()
			long, _ := cmd.Flags().GetBool(flagLong)
			if !long {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return err
			}
			return printInfo(cmd.OutOrStdout(), info)
		},
	}
	cmd.Flags().Bool(flagLong, false, "Print long version information")
	return cmd
}
