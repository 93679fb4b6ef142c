package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/docfilter/internal/editor"
)

func newRulesCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Convert and compare filter rule lists",
		Long: `Convert filter rule lists to and from editor snapshots.

Rule lists are JSON arrays of {"rule_type": <id>, "value": <string|null>}.
Snapshots are YAML documents describing the editor state the rules produce.`,
	}

	cmd.AddCommand(newRulesDecodeCommand(rt))
	cmd.AddCommand(newRulesEncodeCommand(rt))
	cmd.AddCommand(newRulesDiffCommand(rt))
	cmd.AddCommand(newRulesNormalizeCommand(rt))

	return cmd
}

func newRulesDecodeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Load a rule list into the editor and print the resulting snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd, args)
			if err != nil {
				return err
			}

			c := editor.New(rt.editorOptions())
			defer c.Close()

			c.SetFilterRules(rules)
			snap, err := c.Snapshot()
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), snap)
		},
	}
}

func newRulesEncodeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Restore an editor snapshot and print its rule list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var snap editor.Snapshot
			if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
				return fmt.Errorf("failed to parse snapshot: %w", err)
			}

			c := editor.New(rt.editorOptions())
			defer c.Close()

			if err := c.Restore(snap); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c.Rules())
		},
	}
}

// newRulesNormalizeCommand round-trips a rule list through the editor,
// which drops rules it cannot represent and orders the rest canonically.
func newRulesNormalizeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Print the rule list the editor produces for a rule list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd, args)
			if err != nil {
				return err
			}

			c := editor.New(rt.editorOptions())
			defer c.Close()

			c.SetFilterRules(rules)
			return writeJSON(cmd.OutOrStdout(), c.Rules())
		},
	}
}

func newRulesDiffCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <saved> <current>",
		Short: "Report whether a rule list differs from a saved one",
		Long: `Load <current> into the editor with <saved> as the unmodified baseline
and report whether the editor considers the view modified. Rule order is
ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := readRules(cmd, args[:1])
			if err != nil {
				return err
			}
			current, err := readRules(cmd, args[1:])
			if err != nil {
				return err
			}

			c := editor.New(rt.editorOptions())
			defer c.Close()

			c.SetUnmodifiedRules(saved)
			c.SetFilterRules(current)

			status := "unchanged"
			if c.RulesModified() {
				status = "modified"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), status)
			return err
		},
	}
}
