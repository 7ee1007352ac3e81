package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formtemplate/pkg/store"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save and load templates and validation sets in the SQLite store",
	}
	cmd.AddCommand(
		a.storePutCmd(),
		a.storeGetCmd(),
		a.storeListCmd(),
		a.storeDeleteCmd(),
		a.storeRulesCmd(),
	)
	return cmd
}

// withStore opens the database named by --db for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(*store.Store) error) error {
	st, err := store.Open(ctx, a.dbPath, store.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("template id must be a positive integer, got %q", raw)
	}
	return id, nil
}

func (a *app) storePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Normalize a template and save it, printing its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.readTemplate(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st *store.Store) error {
				id, err := st.SaveTemplate(cmd.Context(), &tpl)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, id)
				return err
			})
		},
	}
}

func (a *app) storeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st *store.Store) error {
				raw, err := st.RawTemplate(cmd.Context(), id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, string(raw))
				return err
			})
		},
	}
}

func (a *app) storeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(st *store.Store) error {
				summaries, err := st.ListTemplates(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tUPDATED")
				for _, s := range summaries {
					fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.UpdatedAt.UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func (a *app) storeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st *store.Store) error {
				if err := st.DeleteTemplate(cmd.Context(), id); err != nil {
					return err
				}
				a.logger.Info("template deleted", "id", id)
				return nil
			})
		},
	}
}

func (a *app) storeRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <module>/<name>",
		Short: "Print a stored validation set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, name, ok := strings.Cut(args[0], "/")
			if !ok || module == "" || name == "" {
				return fmt.Errorf("validation set must look like <module>/<name>, got %q", args[0])
			}
			return a.withStore(cmd.Context(), func(st *store.Store) error {
				list, err := st.LoadValidationSet(cmd.Context(), module, name)
				if err != nil {
					return err
				}
				return a.writeJSON(list)
			})
		},
	}
}
