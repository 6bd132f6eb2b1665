package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"networth/internal/backend"
	"networth/internal/core"
	"networth/internal/export"
	"networth/internal/series"
)

func newSeriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "Show running balances for every date with a change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				points, err := b.Reports.BuildSeries(ctx)
				if err != nil {
					return out.Fail("build series", err)
				}
				if points == nil {
					points = series.Series{}
				}
				return out.Success(points, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "DATE\tASSETS\tLIABILITIES\tCASH FLOW\tNET WORTH")
					for _, p := range points {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Date, p.Assets.Display(opts.Currency),
							p.Liabilities.Display(opts.Currency), p.CashFlow.Display(opts.Currency), p.NetWorth.Display(opts.Currency))
					}
					return tw.Flush()
				})
			})
		},
	}
}

type dashboardView struct {
	Totals core.Totals `json:"totals"`
	Goals  []core.Goal `json:"goals"`
}

func newDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show current totals and goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				totals, err := b.Reports.Totals(ctx)
				if err != nil {
					return out.Fail("dashboard", err)
				}
				goals, err := b.Goals.ListGoals(ctx)
				if err != nil {
					return out.Fail("dashboard", err)
				}
				if goals == nil {
					goals = []core.Goal{}
				}
				return out.Success(dashboardView{Totals: totals, Goals: goals}, func(w io.Writer) error {
					cur := opts.Currency
					fmt.Fprintf(w, "Assets:      %s\n", totals.Assets.Display(cur))
					fmt.Fprintf(w, "Liabilities: %s\n", totals.Liabilities.Display(cur))
					fmt.Fprintf(w, "Cash flow:   %s\n", totals.CashFlow.Display(cur))
					fmt.Fprintf(w, "Net worth:   %s\n", totals.NetWorth.Display(cur))
					if len(goals) == 0 {
						return nil
					}
					fmt.Fprintf(w, "\nGoals (%d/%d)\n", len(goals), b.Goals.Limit())
					return renderGoals(goals, cur)(w)
				})
			})
		},
	}
}

func newAnalyticsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show counts, averages, distributions and recent entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				a, err := b.Reports.Analytics(ctx)
				if err != nil {
					return out.Fail("analytics", err)
				}
				return out.Success(a, func(w io.Writer) error {
					cur := opts.Currency
					for _, c := range core.Classes() {
						fmt.Fprintf(w, "%-10s %d entries\n", c, a.Counts[c])
					}
					fmt.Fprintf(w, "Average asset:       %s\n", a.AverageAsset.Display(cur))
					fmt.Fprintf(w, "Average liability:   %s\n", a.AverageLiability.Display(cur))
					fmt.Fprintf(w, "Debt to asset ratio: %s\n", a.DebtToAssetRatio.String())

					for _, c := range core.Classes() {
						top := a.TopSubcategories[c]
						if len(top) == 0 {
							continue
						}
						names := make([]string, len(top))
						for i, t := range top {
							names[i] = fmt.Sprintf("%s %s", t.Name, t.Amount.Display(cur))
						}
						fmt.Fprintf(w, "Top %s: %s\n", c, strings.Join(names, ", "))
					}
					if len(a.Recent) > 0 {
						fmt.Fprintln(w, "\nRecent")
						return renderEntries(a.Recent, cur)(w)
					}
					return nil
				})
			})
		},
	}
}

func newExportCommand(opts *RootOptions) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every entry as csv, json or xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				f, err := export.ParseFormat(format)
				if err != nil {
					return out.Fail("export", err)
				}
				entries, err := b.Entries.List(ctx, "")
				if err != nil {
					return out.Fail("export", err)
				}

				if output == "" || output == "-" {
					if err := export.Write(out.Writer, f, entries); err != nil {
						return out.Fail("export", err)
					}
					return nil
				}

				file, err := os.Create(output)
				if err != nil {
					return out.Fail("export", NewExitError(ExitCommandError, err.Error()))
				}
				if err := export.Write(file, f, entries); err != nil {
					file.Close()
					return out.Fail("export", err)
				}
				if err := file.Close(); err != nil {
					return out.Fail("export", err)
				}
				return out.Success(map[string]any{"path": output, "entries": len(entries)}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Exported %d entries to %s\n", len(entries), output)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&format, "as", "csv", "export format (csv|json|xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newCategoriesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List subcategories per class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				all := b.Registry.All()
				return out.Success(all, func(w io.Writer) error {
					for _, c := range core.Classes() {
						fmt.Fprintf(w, "%s: %s\n", c, strings.Join(all[c], ", "))
					}
					return nil
				})
			})
		},
	}
}
