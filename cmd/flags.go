package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/agnivade/levenshtein"
	"github.com/conneroisu/time-mcp/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"table", "json", "yaml"}

// OutputFlags holds the flags shared by the one-shot commands.
type OutputFlags struct {
	Timezone string
	Format   string
}

func addOutputFlags(cmd *cobra.Command, flags *OutputFlags) {
	cmd.Flags().StringVarP(&flags.Timezone, "timezone", "t", "", "IANA timezone (default from configuration)")
	cmd.Flags().StringVarP(&flags.Format, "output", "o", "table", "Output format (table|json|yaml)")

	AddFlagValidation(cmd, "output", func(format string) error {
		return ValidateFormatWithSuggestion(format, outputFormats)
	})
}

// field is one labelled row of table output.
type field struct {
	key   string
	value interface{}
}

var titleCaser = cases.Title(language.English)

func fieldLabel(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// writeOutput renders v as JSON or YAML, or rows as an aligned table.
func writeOutput(w io.Writer, format string, v interface{}, rows []field) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(v)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%v\n", fieldLabel(row.key), row.value)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort accepts 0 (system-assigned) through 65535.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

// ValidateTransport accepts the transports serve understands.
func ValidateTransport(transport string) error {
	return ValidateFormatWithSuggestion(transport,
		[]string{config.TransportStdio, config.TransportStreamableHTTP})
}

// ValidateFormatWithSuggestion rejects values outside valid and points at
// the closest valid spelling.
func ValidateFormatWithSuggestion(value string, valid []string) error {
	for _, v := range valid {
		if strings.EqualFold(value, v) {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid value %q, must be one of: %s", value, strings.Join(valid, ", "))
	if suggestion := closest(strings.ToLower(value), valid); suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}

	return errors.New(msg)
}

// closest returns the candidate within edit distance 3 of s, if any.
func closest(s string, candidates []string) string {
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}

	return best
}
