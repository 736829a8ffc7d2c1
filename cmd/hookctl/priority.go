package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jg-phare/hookprio/pkg/hookconfig"
	"github.com/jg-phare/hookprio/pkg/logger"
)

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Inspect or change hook priorities",
}

var prioritySetCmd = &cobra.Command{
	Use:   "set <hook> <priority>",
	Short: "Persist a priority override for a hook",
	Long: `Write the priority for one hook into the override file. Other fields and
other hooks in the file are kept. Lower numbers run first.`,
	Example: `  hookctl priority set pattern-extraction 1`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid priority %q: %w", args[1], err)
		}
		path := overridePath()
		if path == "" {
			return fmt.Errorf("no override file: set --config or $%s", configEnv)
		}
		if err := hookconfig.WriteOverride(path, name, hookconfig.Override{Priority: &p}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s priority set to %d in %s\n", name, p, path)
		return nil
	},
}

var priorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hooks in priority order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, m := range loadStore(logger.L()).Snapshot() {
			fmt.Fprintf(w, "%3d  %s\n", m.Priority, m.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(priorityCmd)
	priorityCmd.AddCommand(prioritySetCmd, priorityListCmd)
}
