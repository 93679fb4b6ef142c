package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/docfilter/internal/editor"
	"github.com/rebeliceyang/docfilter/internal/views"
)

func newViewCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"views"},
		Short:   "Manage saved views",
		Long: `Manage saved views: named filter rule lists stored in a local SQLite
database (views.path in the config, default views.db in the config directory).`,
	}

	cmd.AddCommand(newViewSaveCommand(rt))
	cmd.AddCommand(newViewListCommand(rt))
	cmd.AddCommand(newViewShowCommand(rt))
	cmd.AddCommand(newViewDeleteCommand(rt))
	cmd.AddCommand(newViewExportCommand(rt))
	cmd.AddCommand(newViewImportCommand(rt))

	return cmd
}

// withStore opens the view store for the duration of fn
func (rt *runtime) withStore(fn func(*views.Store) error) error {
	path, err := rt.cfg.ViewsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := views.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func newViewSaveCommand(rt *runtime) *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "save <name> [file|-]",
		Short: "Create or replace a saved view",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readRules(cmd, args[1:])
			if err != nil {
				return err
			}
			if normalize {
				c := editor.New(rt.editorOptions())
				c.SetFilterRules(rules)
				rules = c.Rules()
				c.Close()
			}

			return rt.withStore(func(store *views.Store) error {
				view, err := store.Save(args[0], rules)
				if err != nil {
					return err
				}
				rt.logger.Info("view saved", "id", view.ID, "name", view.Name, "rules", len(view.Rules))
				_, err = fmt.Fprintln(cmd.OutOrStdout(), view.ID)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&normalize, "normalize", false, "store the rules as the editor would emit them")

	return cmd
}

func newViewListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved views, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(store *views.Store) error {
				list, err := store.List()
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tRULES\tUPDATED\tID")
				for _, v := range list {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.Name, len(v.Rules), v.UpdatedAt.Format("2006-01-02 15:04"), v.ID)
				}
				return tw.Flush()
			})
		},
	}
}

func newViewShowCommand(rt *runtime) *cobra.Command {
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print the rules of a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(store *views.Store) error {
				view, err := store.GetByName(args[0])
				if err != nil {
					return err
				}
				if !snapshot {
					return writeJSON(cmd.OutOrStdout(), view.Rules)
				}

				c := editor.New(rt.editorOptions())
				defer c.Close()

				c.SetUnmodifiedRules(view.Rules)
				c.SetFilterRules(view.Rules)
				if c.RulesModified() {
					rt.logger.Warn("saved view contains rules the editor does not reproduce", "name", view.Name)
				}
				snap, err := c.Snapshot()
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), snap)
			})
		},
	}

	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "print the editor snapshot instead of the rule list")

	return cmd
}

func newViewDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(func(store *views.Store) error {
				view, err := store.GetByName(args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(view.ID); err != nil {
					return err
				}
				rt.logger.Info("view deleted", "id", view.ID, "name", view.Name)
				return nil
			})
		},
	}
}

func newViewExportCommand(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export all saved views to a JSON, YAML or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := views.Format(format)
			if f == "" {
				var err error
				if f, err = views.FormatFromPath(args[0]); err != nil {
					return err
				}
			}

			return rt.withStore(func(store *views.Store) error {
				list, err := store.List()
				if err != nil {
					return err
				}
				if err := views.Export(list, args[0], f); err != nil {
					return err
				}
				rt.logger.Info("views exported", "path", args[0], "format", f, "count", len(list))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d views to %s\n", len(list), args[0])
				return err
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "json, yaml or csv (default: from the file extension)")

	return cmd
}

func newViewImportCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import views from a JSON or YAML export, replacing views with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := views.Import(args[0])
			if err != nil {
				return err
			}

			return rt.withStore(func(store *views.Store) error {
				var errs []error
				count := 0
				for _, v := range imported {
					if _, err := store.Save(v.Name, v.Rules); err != nil {
						errs = append(errs, fmt.Errorf("view %q: %w", v.Name, err))
						continue
					}
					count++
				}
				rt.logger.Info("views imported", "path", args[0], "count", count, "failed", len(errs))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d views\n", count)
				return errors.Join(errs...)
			})
		},
	}
}
