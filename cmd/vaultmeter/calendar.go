package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/domain/calendar"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print a month of usage",
	Long: `Print the month grid with the total usage of each day.

Days outside the month are shown in brackets. Periods and day boundaries
use calendar.timezone.

Examples:
  vaultmeter calendar
  vaultmeter calendar --year=2024 --month=2
  vaultmeter calendar day 2024-02-14`,
	Args: cobra.NoArgs,
	RunE: runCalendarMonth,
}

var calendarDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List the events of one day",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarDay,
}

var (
	calendarYear  int
	calendarMonth int
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarDayCmd)

	calendarCmd.Flags().IntVar(&calendarYear, "year", 0, "year (defaults to the current one)")
	calendarCmd.Flags().IntVar(&calendarMonth, "month", 0, "month 1-12 (defaults to the current one)")
}

func runCalendarMonth(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	now := core.Clock.Now()
	year, month := now.Year(), int(now.Month())
	if cmd.Flags().Changed("year") {
		year = calendarYear
	}
	if cmd.Flags().Changed("month") {
		month = calendarMonth
	}

	grid, err := core.Calendar.GetMonthGrid(context.Background(), owner, year, month)
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d (%s)\n\n", grid.Month, grid.Year, grid.Location)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Sun\tMon\tTue\tWed\tThu\tFri\tSat\t")
	for i := 0; i < len(grid.Cells); i += 7 {
		days := make([]string, 0, 7)
		totals := make([]string, 0, 7)
		for _, c := range grid.Cells[i:min(i+7, len(grid.Cells))] {
			days = append(days, dayLabel(c))
			totals = append(totals, totalLabel(c))
		}
		fmt.Fprintln(w, strings.Join(days, "\t")+"\t")
		fmt.Fprintln(w, strings.Join(totals, "\t")+"\t")
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d\n", grid.Total)
	return nil
}

func dayLabel(c calendar.DayCell) string {
	if c.Kind != calendar.InMonth {
		return fmt.Sprintf("[%d]", c.Day)
	}
	return fmt.Sprintf("%d", c.Day)
}

func totalLabel(c calendar.DayCell) string {
	if c.Kind != calendar.InMonth || c.TotalAmount == 0 {
		return "."
	}
	return fmt.Sprintf("%d", c.TotalAmount)
}

func runCalendarDay(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	day, err := core.Calendar.GetEventsForDate(context.Background(), owner, args[0])
	if err != nil {
		return fmt.Errorf("failed to load day: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(day.Events) == 0 {
		fmt.Fprintf(out, "No usage on %s.\n", day.Date)
		return nil
	}

	loc := core.Calendar.Location()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACCOUNT\tAMOUNT\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-------\t------\t-----------")
	for _, e := range day.Events {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			e.Timestamp.In(loc).Format("15:04:05"),
			day.Accounts[e.AccountID],
			e.Amount,
			e.Description,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal on %s: %d\n", day.Date, day.Total)
	return nil
}
