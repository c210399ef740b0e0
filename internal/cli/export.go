package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/export"
)

const defaultExportFile = "salesdesk.db"

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot every collection into a SQLite database",
		Long: "Snapshot every collection into a SQLite database with one typed table per\n" +
			"record kind. An existing file at the target path is replaced.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Join(a.cfg.DataDir, defaultExportFile)
			}
			var sources []export.Source
			for _, e := range a.store.Exporters() {
				sources = append(sources, e)
			}
			summary, err := export.ToSQLite(cmd.Context(), outPath, sources...)
			if err != nil {
				return err
			}
			return emit(cmd, map[string]any{"path": outPath, "tables": summary}, func(w io.Writer) error {
				fmt.Fprintf(w, "Exported to %s\n", outPath)
				for _, e := range a.store.Exporters() {
					fmt.Fprintf(w, "  %-16s %d rows\n", export.TableName(e.Kind()), summary[export.TableName(e.Kind())])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "database file (default <data-dir>/salesdesk.db)")
	return cmd
}
