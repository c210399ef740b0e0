package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Save browser-extracted events from a JSON file",
		Long: "Save browser-extracted events from a JSON array. Events without a name or\n" +
			"starting before the intake cutoff are filtered; events whose source URL is\n" +
			"already stored are skipped. Use - to read stdin.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readImport(cmd, args[0])
			if err != nil {
				return err
			}
			var items []types.ExtractedEvent
			if err := json.Unmarshal(data, &items); err != nil {
				return userError("%s: expected a JSON array of events: %v", args[0], err)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			res, err := a.intakeService().Save(items)
			if err != nil {
				return err
			}
			return emit(cmd, res, func(w io.Writer) error {
				fmt.Fprintln(w, res.Message)
				return nil
			})
		},
	}
}

func readImport(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, userError("read %s: %v", name, err)
	}
	return data, nil
}
