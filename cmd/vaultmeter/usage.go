package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/domain/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Log and inspect usage",
	Long: `Log usage against an account and inspect or correct its history.

Examples:
  vaultmeter usage log acc_123 2 --description="espresso"
  vaultmeter usage show acc_123
  vaultmeter usage edit evt_456 --amount=3
  vaultmeter usage delete evt_456
  vaultmeter usage recompute`,
}

var usageLogCmd = &cobra.Command{
	Use:   "log <account-id> <amount>",
	Short: "Record usage against an account",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsageLog,
}

var usageShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show the usage status and event history of an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageShow,
}

var usageEditCmd = &cobra.Command{
	Use:   "edit <event-id>",
	Short: "Correct the amount or description of an event",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageEdit,
}

var usageDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Remove an event from the log",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsageDelete,
}

var usageRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute the current usage of every account",
	Args:  cobra.NoArgs,
	RunE:  runUsageRecompute,
}

var (
	usageDescription string
	usageAmount      int64
	usageLimit       int
)

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.AddCommand(usageLogCmd)
	usageCmd.AddCommand(usageShowCmd)
	usageCmd.AddCommand(usageEditCmd)
	usageCmd.AddCommand(usageDeleteCmd)
	usageCmd.AddCommand(usageRecomputeCmd)

	usageLogCmd.Flags().StringVar(&usageDescription, "description", "", "optional note")

	usageShowCmd.Flags().IntVar(&usageLimit, "limit", 20, "number of most recent events to show (0 for all)")

	usageEditCmd.Flags().Int64Var(&usageAmount, "amount", 0, "new amount")
	usageEditCmd.Flags().StringVar(&usageDescription, "description", "", "new description")
}

func runUsageLog(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", usage.ErrInvalidAmount, args[1])
	}

	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := context.Background()
	e, err := core.Usage.LogUsage(ctx, owner, args[0], amount, usageDescription)
	if err != nil {
		return fmt.Errorf("failed to log usage: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage logged: %s (%d)\n", e.ID, e.Amount)

	a, st, err := core.Usage.Status(ctx, owner, args[0])
	if err != nil {
		return fmt.Errorf("failed to load status: %w", err)
	}
	fmt.Fprintf(out, "Used %d / %s", st.Used, formatLimit(a.UsageLimit))
	if st.Limit != nil {
		fmt.Fprintf(out, " (%.1f%%, %s)", st.Percent, st.Level)
	}
	fmt.Fprintln(out)
	return nil
}

func runUsageShow(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := context.Background()
	a, st, err := core.Usage.Status(ctx, owner, args[0])
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	events, err := core.Usage.ListEvents(ctx, owner, args[0])
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	out := cmd.OutOrStdout()
	printAccount(out, a, st)
	fmt.Fprintln(out)

	if len(events) == 0 {
		fmt.Fprintln(out, "No usage recorded.")
		return nil
	}
	if usageLimit > 0 && len(events) > usageLimit {
		events = events[len(events)-usageLimit:]
	}

	loc := core.Calendar.Location()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tTIMESTAMP\tAMOUNT\tDESCRIPTION")
	fmt.Fprintln(w, "-----\t---------\t------\t-----------")

	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			e.ID,
			e.Timestamp.In(loc).Format("2006-01-02 15:04:05"),
			e.Amount,
			e.Description,
		)
	}

	w.Flush()
	return nil
}

func runUsageEdit(cmd *cobra.Command, args []string) error {
	var p usage.Patch
	if cmd.Flags().Changed("amount") {
		p.Amount = &usageAmount
	}
	if cmd.Flags().Changed("description") {
		p.Description = &usageDescription
	}
	if p.Amount == nil && p.Description == nil {
		return fmt.Errorf("nothing to change: pass --amount or --description")
	}

	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	e, err := core.Usage.UpdateEvent(context.Background(), owner, args[0], p)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Event updated: %s (%d)\n", e.ID, e.Amount)
	return nil
}

func runUsageDelete(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.Usage.DeleteEvent(context.Background(), owner, args[0]); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Event deleted: %s\n", args[0])
	return nil
}

func runUsageRecompute(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	accounts, err := core.Usage.RecomputeAll(context.Background(), owner)
	if err != nil {
		return fmt.Errorf("failed to recompute usage: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUSED\tLIMIT")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.ID, a.Name, a.CurrentUsage, formatLimit(a.UsageLimit))
	}
	w.Flush()
	fmt.Fprintf(out, "Recomputed %d accounts.\n", len(accounts))
	return nil
}
