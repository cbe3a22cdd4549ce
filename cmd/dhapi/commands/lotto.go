package commands

import (
	"dhapi/lib/numberstore"
	"dhapi/lib/scrapers/dhlottery"
	"dhapi/lib/scrapers/dhlottery/extract"
	"dhapi/lib/scrapers/dhlottery/lotto645"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var buyFromSaved []int64

func init() {
	buyLotto645Cmd.Flags().Int64SliceVar(&buyFromSaved, "saved", nil, "add a line for each saved number set id (see `dhapi numbers list`)")
	rootCmd.AddCommand(buyLotto645Cmd)
}

func parseTickets(args []string) ([]lotto645.Ticket, error) {
	tickets := make([]lotto645.Ticket, 0, len(args))
	for _, arg := range args {
		ticket, err := lotto645.ParseTicket(arg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

var buyLotto645Cmd = &cobra.Command{
	Use:   "buy-lotto645 [lines...]",
	Short: "Buys lotto 6/45 lines for the current round.",
	Long: `Buys up to 5 lotto 6/45 lines for the current round.

Each line is "auto" (or empty) for an automatic line, six comma separated
numbers for a manual line, or fewer numbers for a semi automatic line.
Without any lines a single automatic line is bought.

  dhapi buy-lotto645 auto 1,2,3,4,5,6 7,8,9`,
	Args: cobra.MaximumNArgs(lotto645.MaxTickets),
	RunE: func(cmd *cobra.Command, args []string) error {
		tickets, err := parseTickets(args)
		if err != nil {
			return err
		}

		if len(buyFromSaved) > 0 {
			saved, err := savedTickets(cmd, buyFromSaved)
			if err != nil {
				return err
			}
			tickets = append(tickets, saved...)
		}
		if len(tickets) == 0 {
			auto, err := lotto645.NewTicket(lotto645.ModeAuto, nil)
			if err != nil {
				return err
			}
			tickets = append(tickets, auto)
		}
		if len(tickets) > lotto645.MaxTickets {
			return fmt.Errorf("at most %d lines can be bought at once", lotto645.MaxTickets)
		}

		lines := make([]string, len(tickets))
		for i, t := range tickets {
			lines[i] = fmt.Sprintf("  %c. %s", 'A'+i, t)
		}
		ok, err := confirm(fmt.Sprintf(
			"다음 %d게임을 %s에 구매합니다.\n%s\n진행할까요?",
			len(tickets),
			extract.FormatWon(len(tickets)*lotto645.TicketPrice),
			strings.Join(lines, "\n"),
		))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("cancelled")
		}

		return withSession(cmd.Context(), func(client *dhlottery.Client) error {
			_, err := client.BuyLotto645(cmd.Context(), tickets)
			return err
		})
	},
}

func savedTickets(cmd *cobra.Command, ids []int64) ([]lotto645.Ticket, error) {
	store, closeStore, err := openNumberStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	entries, err := store.List(cmd.Context(), config.Username)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]numberstore.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	var tickets []lotto645.Ticket
	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no saved number set with id %d", id)
		}
		ticket, err := lotto645.NewTicket(lotto645.ModeManual, entry.Numbers)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}
