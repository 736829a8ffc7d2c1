package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jg-phare/hookprio/pkg/priority"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <hook>...",
	Short: "Print the hook names left after deduplication",
	Long: `Read a hook context JSON object from stdin and print each distinct hook
name once, in first-seen order, followed by the context fingerprint.`,
	Example: `  echo '{"toolName":"Edit"}' | hookctl dedup quality-check quality-check security-scan`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := readContext(cmd.InOrStdin())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, name := range priority.Deduplicate(args, ctx) {
			fmt.Fprintln(w, name)
		}
		fmt.Fprintf(w, "fingerprint %s\n", priority.Fingerprint(ctx))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupCmd)
}
