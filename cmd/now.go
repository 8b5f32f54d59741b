package cmd

import (
	"github.com/conneroisu/time-mcp/internal/timeinfo"
	"github.com/spf13/cobra"
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the current time once",
	Long: `Print the current time the way get_current_time reports it.

Examples:
  time-mcp now
  time-mcp now --timezone America/New_York --date-format "%Y-%m-%d %H:%M:%S"
  time-mcp now -t Asia/Kolkata -o json`,
	Args: cobra.NoArgs,
	RunE: runNow,
}

var (
	nowFlags      OutputFlags
	nowDateFormat string
)

func init() {
	rootCmd.AddCommand(nowCmd)

	addOutputFlags(nowCmd, &nowFlags)
	nowCmd.Flags().StringVarP(&nowDateFormat, "date-format", "d", "", "strftime pattern for formatted_time (default ISO-8601)")
}

func runNow(cmd *cobra.Command, args []string) error {
	provider, err := newCLIProvider()
	if err != nil {
		return err
	}

	snap, err := provider.CurrentTime(nowDateFormat, nowFlags.Timezone)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), nowFlags.Format, snap, []field{
		{"iso_time", snap.ISOTime},
		{"formatted_time", snap.FormattedTime},
		{"timezone", snap.Timezone},
	})
}

// newCLIProvider builds a provider from the loaded configuration using the
// command clock.
func newCLIProvider() (*timeinfo.Provider, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return cfg.NewProvider(timeinfo.WithClock(cliClock))
}
