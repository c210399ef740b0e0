package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/auth"
)

func newHashPasswordCmd() *cobra.Command {
	var password string
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for a config.yaml login",
		Long: "Print a bcrypt hash for the password_hash field of a user in config.yaml.\n" +
			"Without --password the first line of stdin is used.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return userError("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return userError("no password given")
			}
			hash, err := auth.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password to hash (default: read stdin)")
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default 12)")
	return cmd
}
