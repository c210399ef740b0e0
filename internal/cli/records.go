package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

var kindsHelp = "Kinds: " + strings.Join(types.StandardTableNames, ", ")

// tableArg opens the app and resolves the record kind named by arg.
func tableArg(cmd *cobra.Command, kind string) (*app, types.Table, error) {
	a, err := openApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	t, err := a.store.GetTable(kind)
	if err != nil {
		return nil, nil, userError("unknown kind %q (%s)", kind, kindsHelp)
	}
	return a, t, nil
}

// readData returns the --data payload; "-" reads stdin and "@file" reads a
// file.
func readData(cmd *cobra.Command, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, userError("--data is required")
	case data == "-":
		return io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, userError("read %s: %v", data[1:], err)
		}
		return b, nil
	}
	return []byte(data), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List every record of a kind as JSON",
		Long:  "List every record of a kind as JSON.\n\n" + kindsHelp,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			records, err := t.List()
			if err != nil {
				return err
			}
			if records == nil {
				records = []any{}
			}
			return printJSON(out(cmd), records)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one record as JSON",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			record, err := t.Get(args[1])
			if err != nil {
				return err
			}
			return printJSON(out(cmd), record)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create <kind> --data <json>",
		Short: "Create a record from a JSON object",
		Long: "Create a record from a JSON object. --data takes inline JSON, @file or -\n" +
			"for stdin.\n\n" + kindsHelp,
		Example: `  salesdesk create events --data '{"name":"Fintech Forum","sourceUrl":"https://example.ch/ff"}'`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			body, err := readData(cmd, data)
			if err != nil {
				return err
			}
			record, err := t.Create(body)
			if err != nil {
				return err
			}
			if flags.jsonMode {
				return printJSON(out(cmd), record)
			}
			fmt.Fprintf(out(cmd), "Created %s: %s\n", t.Name(), recordID(record))
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "record as JSON, @file or - for stdin")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <kind> <id> --data <json>",
		Short: "Apply a partial update to a record",
		Long: "Apply a partial update to a record. Only the fields present in --data\n" +
			"change; id and createdAt cannot be set.",
		Example: `  salesdesk update opportunities 3f2a... --data '{"status":"QUALIFIED"}'`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			body, err := readData(cmd, data)
			if err != nil {
				return err
			}
			var fields map[string]any
			if err := json.Unmarshal(body, &fields); err != nil {
				return userError("--data must be a JSON object: %v", err)
			}
			record, err := t.Update(args[1], fields)
			if err != nil {
				return err
			}
			return printJSON(out(cmd), record)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "fields as JSON, @file or - for stdin")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a record",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			ok, err := t.Delete(args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s %s: %w", t.Name(), args[1], types.ErrNotFound)
			}
			if flags.jsonMode {
				return printJSON(out(cmd), map[string]bool{"success": true})
			}
			fmt.Fprintf(out(cmd), "Deleted %s: %s\n", t.Name(), args[1])
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <kind>",
		Short: "Show the statistics of a record kind",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, t, err := tableArg(cmd, args[0])
			if err != nil {
				return err
			}
			stats, err := t.Statistics()
			if err != nil {
				return err
			}
			return printJSON(out(cmd), stats)
		},
	}
}

// recordID reads the id of any record through its JSON form.
func recordID(record any) string {
	data, err := json.Marshal(record)
	if err != nil {
		return ""
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.ID
}
