package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jg-phare/hookprio/pkg/logger"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the merged hook metadata",
	Long: `Print the hook table after the override file has been layered over the
built-in defaults, ordered by priority then name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := loadStore(logger.L())
		hooks := store.Snapshot()
		if configJSON {
			return printJSON(cmd.OutOrStdout(), hooks)
		}
		out, err := yaml.Marshal(hooks)
		if err != nil {
			return fmt.Errorf("encode hook table: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configJSON, "json", false, "print JSON instead of YAML")
}
