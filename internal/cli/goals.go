package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"networth/internal/backend"
	"networth/internal/core"
)

func newGoalCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage goals",
	}
	cmd.AddCommand(newGoalSetCommand(opts))
	cmd.AddCommand(newGoalListCommand(opts))
	cmd.AddCommand(newGoalDeleteCommand(opts))
	return cmd
}

func renderGoals(goals []core.Goal, currency string) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tSUBCATEGORY\tTARGET\tPROGRESS")
		for _, g := range goals {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", g.ID, g.Type, g.Subcategory, g.Target.Display(currency), g.Progress.Display(currency))
		}
		return tw.Flush()
	}
}

func newGoalSetCommand(opts *RootOptions) *cobra.Command {
	var typ, sub, target string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Add a goal; progress is computed now and stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				gt, err := core.ParseGoalType(typ)
				if err != nil {
					return out.Fail("set goal", err)
				}
				amount, err := parseAmountFlag("target_amount", target)
				if err != nil {
					return out.Fail("set goal", err)
				}
				g, err := b.Goals.SetGoal(ctx, gt, sub, amount)
				if err != nil {
					return out.Fail("set goal", err)
				}
				return out.Success(g, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Goal %d set: %s %s target %s, progress %s\n", g.ID, g.Type, g.Subcategory,
						g.Target.Display(opts.Currency), g.Progress.Display(opts.Currency))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "asset, liability, cash-flow or net-worth")
	cmd.Flags().StringVar(&sub, "subcategory", "", "subcategory (ignored for net-worth)")
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				goals, err := b.Goals.ListGoals(ctx)
				if err != nil {
					return out.Fail("list goals", err)
				}
				if goals == nil {
					goals = []core.Goal{}
				}
				return out.Success(goals, renderGoals(goals, opts.Currency))
			})
		},
	}
}

func newGoalDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b *backend.Backend, out *OutputFormatter) error {
				id, err := parseIDArg(args[0])
				if err != nil {
					return out.Fail("delete goal", err)
				}
				if err := b.Goals.DeleteGoal(ctx, id); err != nil {
					return out.Fail("delete goal", err)
				}
				return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Deleted goal %d\n", id)
					return err
				})
			})
		},
	}
}
