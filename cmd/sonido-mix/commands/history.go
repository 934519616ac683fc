package commands

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mix/render"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List and show stored reports",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		history, err := openHistory(globalConfig)
		if err != nil {
			return err
		}
		defer history.Close()

		summaries, err := history.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if outputJSON {
			return render.Summaries(cmd.OutOrStdout(), summaries)
		}
		return render.History(cmd.OutOrStdout(), summaries, renderOptions(globalConfig))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		history, err := openHistory(globalConfig)
		if err != nil {
			return err
		}
		defer history.Close()

		report, err := history.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputReport(cmd, globalConfig, report)
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum reports to list (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}
