package cmd

import (
	"github.com/spf13/cobra"
)

var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"c"},
	Short:   "Print the current time split into fields",
	Long: `Print the current time the way get_time_components reports it.
Weekday counts from Monday (0) to Sunday (6).

Examples:
  time-mcp components
  time-mcp components --timezone Australia/Lord_Howe -o yaml`,
	Args: cobra.NoArgs,
	RunE: runComponents,
}

var componentsFlags OutputFlags

func init() {
	rootCmd.AddCommand(componentsCmd)

	addOutputFlags(componentsCmd, &componentsFlags)
}

func runComponents(cmd *cobra.Command, args []string) error {
	provider, err := newCLIProvider()
	if err != nil {
		return err
	}

	c, err := provider.Components(componentsFlags.Timezone)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), componentsFlags.Format, c, []field{
		{"year", c.Year},
		{"month", c.Month},
		{"day", c.Day},
		{"hour", c.Hour},
		{"minute", c.Minute},
		{"second", c.Second},
		{"microsecond", c.Microsecond},
		{"weekday", c.Weekday},
		{"timezone", c.Timezone},
	})
}
