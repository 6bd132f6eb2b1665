package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"networth/internal/backend"
	"networth/internal/core"
)

func parseDateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.DateOf(time.Now()), nil
	}
	return core.ParseDate(s)
}

func parseAmountFlag(field, s string) (core.Money, error) {
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: field, Reason: err.Error()}
	}
	return m, nil
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Reason: fmt.Sprintf("invalid id %q", s)}
	}
	return id, nil
}

func renderEntries(entries []core.Entry, currency string) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tCLASS\tSUBCATEGORY\tVALUE\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Class, e.Subcategory, e.Value.Display(currency), e.Description)
		}
		return tw.Flush()
	}
}

func renderRecords(recs []core.HistoryRecord, currency string) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tENTRY\tKIND\tDATE\tOLD\tNEW\tDIFF\tDESCRIPTION")
		for _, r := range recs {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.EntryID, r.Kind, r.Date,
				r.OldValue.Display(currency), r.NewValue.Display(currency), r.Difference.Display(currency), r.Description)
		}
		return tw.Flush()
	}
}

func newAddCommand(opts *RootOptions) *cobra.Command {
	var class, sub, value, date, desc string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				c, err := core.ParseClass(class)
				if err != nil {
					return out.Fail("add entry", err)
				}
				d, err := parseDateFlag(date)
				if err != nil {
					return out.Fail("add entry", err)
				}
				v, err := parseAmountFlag("value", value)
				if err != nil {
					return out.Fail("add entry", err)
				}

				e, err := b.Entries.Create(ctx, core.Entry{Date: d, Class: c, Subcategory: sub, Description: desc, Value: v})
				if err != nil {
					return out.Fail("add entry", err)
				}
				return out.Success(e, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added entry %d: %s %s %s\n", e.ID, e.Class, e.Subcategory, e.Value.Display(opts.Currency))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "asset, liability or cash-flow")
	cmd.Flags().StringVar(&sub, "subcategory", "", "subcategory of the class")
	cmd.Flags().StringVar(&value, "value", "", "non-negative amount, e.g. 1000.50")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "description", "", "free text")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("subcategory")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newUpdateCommand(opts *RootOptions) *cobra.Command {
	var value, date, desc string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the value of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				id, err := parseIDArg(args[0])
				if err != nil {
					return out.Fail("update entry", err)
				}
				v, err := parseAmountFlag("value", value)
				if err != nil {
					return out.Fail("update entry", err)
				}
				d, err := parseDateFlag(date)
				if err != nil {
					return out.Fail("update entry", err)
				}

				current, err := b.Entries.Get(ctx, id)
				if err != nil {
					return out.Fail("update entry", err)
				}
				description := current.Description
				if cmd.Flags().Changed("description") {
					description = desc
				}

				rec, err := b.Entries.Update(ctx, id, v, description, d)
				if err != nil {
					return out.Fail("update entry", err)
				}
				return out.Success(rec, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated entry %d: %s -> %s (%s)\n", id,
						rec.OldValue.Display(opts.Currency), rec.NewValue.Display(opts.Currency), rec.Difference.Display(opts.Currency))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "new non-negative amount")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&desc, "description", "", "replace the description")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				id, err := parseIDArg(args[0])
				if err != nil {
					return out.Fail("delete entry", err)
				}
				if err := b.Entries.Delete(ctx, id); err != nil {
					return out.Fail("delete entry", err)
				}
				return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted entry %d\n", id)
					return err
				})
			})
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries ordered by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				var c core.Class
				if class != "" {
					var err error
					if c, err = core.ParseClass(class); err != nil {
						return out.Fail("list entries", err)
					}
				}
				entries, err := b.Entries.List(ctx, c)
				if err != nil {
					return out.Fail("list entries", err)
				}
				if entries == nil {
					entries = []core.Entry{}
				}
				return out.Success(entries, renderEntries(entries, opts.Currency))
			})
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only list this class")
	return cmd
}

func newHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history [id]",
		Short: "Show value history of one entry, or of all entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				var (
					recs []core.HistoryRecord
					err  error
				)
				if len(args) == 1 {
					id, perr := parseIDArg(args[0])
					if perr != nil {
						return out.Fail("history", perr)
					}
					recs, err = b.Entries.History(ctx, id)
				} else {
					recs, err = b.Entries.AllHistory(ctx)
				}
				if err != nil {
					return out.Fail("history", err)
				}
				if recs == nil {
					recs = []core.HistoryRecord{}
				}
				return out.Success(recs, renderRecords(recs, opts.Currency))
			})
		},
	}
}
