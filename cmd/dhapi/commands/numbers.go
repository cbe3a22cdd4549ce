package commands

import (
	"dhapi/lib/numberstore"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var numbersName string

func init() {
	numbersAddCmd.Flags().StringVarP(&numbersName, "name", "n", "", "a label for the set")

	numbersCmd.AddCommand(numbersAddCmd)
	numbersCmd.AddCommand(numbersListCmd)
	numbersCmd.AddCommand(numbersDeleteCmd)
	rootCmd.AddCommand(numbersCmd)
}

func openNumberStore() (numberstore.Store, func(), error) {
	db, err := config.Database.OpenDB(numberstore.Schema)
	if err != nil {
		return numberstore.Store{}, nil, fmt.Errorf("open database: %w", err)
	}
	return numberstore.NewStore(db), func() { db.Close() }, nil
}

func parseNumbers(args []string) ([]int, error) {
	var numbers []int
	for _, arg := range args {
		for _, part := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", part)
			}
			numbers = append(numbers, n)
		}
	}
	return numbers, nil
}

var numbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "Manages saved number sets.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := rootCmd.PersistentPreRunE(cmd, args)
		if err != nil {
			return err
		}
		if config.Username == "" {
			return errNoUsername
		}
		return nil
	},
}

var numbersAddCmd = &cobra.Command{
	Use:   "add <n,n,n,n,n,n>",
	Short: "Saves a set of 6 numbers.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		numbers, err := parseNumbers(args)
		if err != nil {
			return err
		}
		store, closeStore, err := openNumberStore()
		if err != nil {
			return err
		}
		defer closeStore()

		entry, err := store.Create(cmd.Context(), config.Username, numbers, numbersName)
		if err != nil {
			return err
		}
		return output.PrintNumbers([]numberstore.Entry{entry})
	},
}

var numbersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists saved number sets, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openNumberStore()
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := store.List(cmd.Context(), config.Username)
		if err != nil {
			return err
		}
		return output.PrintNumbers(entries)
	},
}

var numbersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deletes a saved number set.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		store, closeStore, err := openNumberStore()
		if err != nil {
			return err
		}
		defer closeStore()

		deleted, err := store.Delete(cmd.Context(), config.Username, id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no saved number set with id %d", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
		return nil
	},
}
