package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
	"github.com/rebeliceyang/docfilter/internal/query"
)

// ErrInvalidQuery is returned by "query validate" when problems were reported
var ErrInvalidQuery = errors.New("custom field query is not valid")

func newQueryCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect custom field queries",
	}

	cmd.AddCommand(newQueryValidateCommand(rt))
	cmd.AddCommand(newQueryOperatorsCommand())

	return cmd
}

func newQueryValidateCommand(rt *runtime) *cobra.Command {
	var fieldsPath string

	cmd := &cobra.Command{
		Use:   "validate <query>",
		Short: "Check a custom field query in wire form",
		Long: `Parse a custom field query such as '["AND",[[1,"exists",true]]]' and check
that it fits the editor's limits and that every atom is complete.

With --fields, atoms are also checked against a YAML or JSON list of custom
field definitions: the field must exist and allow the operator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fields map[int]models.CustomField
			if fieldsPath != "" {
				var err error
				if fields, err = loadFields(fieldsPath); err != nil {
					return err
				}
			}

			expression, dropped, err := query.ParseWithDropped(args[0])
			if err != nil {
				return err
			}

			var problems []string
			if dropped > 0 {
				problems = append(problems, fmt.Sprintf("query exceeds depth %d or %d atoms: %d nodes dropped", query.MaxDepth, query.MaxAtoms, dropped))
			}
			problems = append(problems, checkNode(expression, fields)...)

			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				wire, err := query.Marshal(expression.Serialize())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "valid: %s\n", wire)
				return err
			}

			rt.logger.Debug("query rejected", "query", args[0], "problems", len(problems))
			for _, p := range problems {
				fmt.Fprintf(out, "- %s\n", p)
			}
			return ErrInvalidQuery
		},
	}

	cmd.Flags().StringVar(&fieldsPath, "fields", "", "custom field definitions (YAML or JSON list)")

	return cmd
}

func loadFields(path string) (map[int]models.CustomField, error) {
	var list []models.CustomField
	if err := readYAMLFile(path, &list); err != nil {
		return nil, err
	}

	fields := make(map[int]models.CustomField, len(list))
	for _, f := range list {
		fields[f.ID] = f
	}
	return fields, nil
}

// checkNode walks the tree and describes every incomplete atom and every
// atom the field definitions do not allow. fields may be nil.
func checkNode(node query.Node, fields map[int]models.CustomField) []string {
	switch n := node.(type) {
	case *query.Atom:
		var problems []string
		if !n.IsValid() {
			problems = append(problems, fmt.Sprintf("atom %v is incomplete", n.Serialize()))
		}
		if fields == nil || n.Field() == 0 {
			return problems
		}
		field, ok := fields[n.Field()]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("unknown custom field %d", n.Field()))
		case !filter.OperatorAllowed(field, n.Operator()):
			problems = append(problems, fmt.Sprintf("operator %q is not allowed for %s field %q", n.Operator(), field.DataType, field.Name))
		}
		return problems
	case *query.Expression:
		var problems []string
		if len(n.Children()) == 0 {
			problems = append(problems, fmt.Sprintf("%s expression is empty", n.Operator()))
		}
		for _, child := range n.Children() {
			problems = append(problems, checkNode(child, fields)...)
		}
		return problems
	}
	return nil
}

func newQueryOperatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operators <data_type>",
		Short: "List the operators a custom field data type allows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OPERATOR\tVALUE")
			for _, op := range filter.GetOperatorsForType(models.CustomFieldDataType(args[0])) {
				fmt.Fprintf(tw, "%s\t%s\n", op, models.QueryValueKinds[op])
			}
			return tw.Flush()
		},
	}
}
