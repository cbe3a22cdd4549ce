package commands

import (
	"dhapi/lib/scrapers/dhlottery"
	"dhapi/lib/timezone"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	buyListStart string
	buyListEnd   string
)

func init() {
	showBuyListCmd.Flags().StringVarP(&buyListStart, "start", "s", "", "first day, YYYYMMDD (defaults to 14 days before --end)")
	showBuyListCmd.Flags().StringVarP(&buyListEnd, "end", "e", "", "last day, YYYYMMDD (defaults to today)")

	rootCmd.AddCommand(showBalanceCmd)
	rootCmd.AddCommand(showBuyListCmd)
	rootCmd.AddCommand(showWeeklyLimitCmd)
	rootCmd.AddCommand(assignVirtualAccountCmd)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("20060102", s, timezone.Location)
}

var showBalanceCmd = &cobra.Command{
	Use:   "show-balance",
	Short: "Shows the deposit balance.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(client *dhlottery.Client) error {
			_, err := client.ShowBalance(cmd.Context())
			return err
		})
	},
}

var showBuyListCmd = &cobra.Command{
	Use:   "show-buy-list [--start YYYYMMDD] [--end YYYYMMDD]",
	Short: "Shows purchases in a date range.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDay(buyListStart)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		end, err := parseDay(buyListEnd)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}
		if !start.IsZero() && !end.IsZero() && start.After(end) {
			return fmt.Errorf("--start is after --end")
		}
		return withSession(cmd.Context(), func(client *dhlottery.Client) error {
			_, err := client.ShowBuyList(cmd.Context(), start, end)
			return err
		})
	},
}

var showWeeklyLimitCmd = &cobra.Command{
	Use:   "show-weekly-limit",
	Short: "Shows how much of this week's online purchase limit is left.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(client *dhlottery.Client) error {
			usage, err := client.WeeklyUsage(cmd.Context())
			if err != nil {
				return err
			}
			return output.PrintWeeklyUsage(usage)
		})
	},
}

var assignVirtualAccountCmd = &cobra.Command{
	Use:   "assign-virtual-account <amount>",
	Short: "Gets a virtual account to deposit <amount> won into.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		return withSession(cmd.Context(), func(client *dhlottery.Client) error {
			_, err := client.AssignVirtualAccount(cmd.Context(), amount)
			return err
		})
	},
}
