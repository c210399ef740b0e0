package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/pkg/salesdesk"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the salesdesk version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return printJSON(out(cmd), map[string]string{"version": salesdesk.Version, "module": salesdesk.ModulePath})
			}
			fmt.Fprintf(out(cmd), "salesdesk v%s\nmodule: %s\n", salesdesk.Version, salesdesk.ModulePath)
			return nil
		},
	}
}
