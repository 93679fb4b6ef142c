package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/docfilter/internal/editor"
	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
)

func newItemsCommand(rt *runtime) *cobra.Command {
	var countsPath, rulesPath string

	cmd := &cobra.Command{
		Use:   "items <dimension> <items-file>",
		Short: "Print the ordered item list of a selection dimension",
		Long: `Load items (YAML or JSON list of {id, name, parent}) into one of the tags,
correspondents, document_types or storage_paths dimensions and print them in
display order with their selection state.

--counts supplies server document counts ({id, document_count} list) and
--rules a rule list whose selections are applied first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []models.Item
			if err := readYAMLFile(args[1], &items); err != nil {
				return err
			}
			var counts []models.SelectionDataItem
			if countsPath != "" {
				if err := readYAMLFile(countsPath, &counts); err != nil {
					return err
				}
			}

			c := editor.New(rt.editorOptions())
			defer c.Close()

			if rulesPath != "" {
				rules, err := readRules(cmd, []string{rulesPath})
				if err != nil {
					return err
				}
				c.SetFilterRules(rules)
			}

			m, ok := c.Selection(models.Dimension(args[0]))
			if !ok {
				return fmt.Errorf("unknown selection dimension: %q", args[0])
			}
			c.Update(func(filter.Models) {
				m.SetItems(items)
				m.SetDocumentCounts(counts)
				m.Apply()
			})

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATE\tID\tNAME\tDOCUMENTS")
			for _, item := range m.Items() {
				name := item.Name
				if item.HasParent() {
					name = "  " + name
				}
				count := ""
				if n, ok := m.DocumentCount(item.ID); ok {
					count = strconv.Itoa(n)
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", m.Get(item.ID), item.ID, name, count)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&countsPath, "counts", "", "document counts (YAML or JSON list)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule list to apply before listing")

	return cmd
}

func readYAMLFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
