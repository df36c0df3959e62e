package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/contactbook/pkg/contactbook"
)

const modulePath = "github.com/mesh-intelligence/contactbook"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the contactbook version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "contactbook v%s\nmodule: %s\n", contactbook.Version, modulePath)
			return nil
		},
	}
}
