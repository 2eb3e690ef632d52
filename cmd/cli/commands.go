package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
	"github.com/dvloznov/saldo-certo/internal/store"
	bqstore "github.com/dvloznov/saldo-certo/internal/store/bigquery"
)

func newInterpretCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interpret <text>",
		Short: "Show the transactions found in a message, without storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				txs, err := interpreter.New(st).Interpret(cmd.Context(), text)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(txs) == 0 {
					fmt.Fprintln(out, "No transactions found.")
					return nil
				}
				for i, tx := range txs {
					fmt.Fprintf(out, "%d. %s %s category=%s source=%s note=%q\n",
						i+1, tx.Direction, tx.Amount.StringFixed(2), tx.Category, tx.Category.Source(), tx.Note)
				}
				return nil
			})
		},
	}
}

func newBalanceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print the current balance of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireUser(); err != nil {
				return err
			}
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				balance, err := st.Balance(cmd.Context(), opts.userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saldo atual: %s\n", balance.StringFixed(2))
				return nil
			})
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the current month report of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireUser(); err != nil {
				return err
			}
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				ctx := cmd.Context()
				balance, err := st.Balance(ctx, opts.userID)
				if err != nil {
					return err
				}
				month := store.StartOfMonth(time.Now())
				totals, err := st.Totals(ctx, opts.userID, month)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Mês: %s\n", month.Format("2006-01"))
				fmt.Fprintf(out, "Saldo atual: %s\n", balance.StringFixed(2))
				fmt.Fprintf(out, "Receitas: %s\n", totals.Income.StringFixed(2))
				fmt.Fprintf(out, "Despesas: %s\n", totals.Expense.StringFixed(2))
				fmt.Fprintf(out, "Número de transações: %d\n", totals.Count)
				return nil
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		outPath string
		monthly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's transactions to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireUser(); err != nil {
				return err
			}
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				var since time.Time
				if monthly {
					since = store.StartOfMonth(time.Now())
				}
				file, err := export.Build(cmd.Context(), st, opts.userID, since, monthly)
				if err != nil {
					return err
				}
				if file == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma transação registrada para exportar.")
					return nil
				}

				path := outPath
				if path == "" {
					path = file.Name
				}
				if err := os.WriteFile(path, file.Data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions to %s\n", file.Rows, path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (defaults to the bot's file name)")
	cmd.Flags().BoolVar(&monthly, "monthly", false, "export only the current month")
	return cmd
}

func newLearnCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "learn <word> <category>",
		Short: "Teach the interpreter a word-to-category association",
		Long: `Teach the interpreter a word-to-category association. An existing
association for the word is kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Learn(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				category, _, err := st.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", store.NormalizeWord(args[0]), category)
				return nil
			})
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the storage tables if they do not exist",
		Long: `Create the storage tables if they do not exist. SQLite databases are
migrated when opened; for BigQuery this creates the dataset tables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd.Context(), func(st store.Store) error {
				bq, ok := st.(*bqstore.Store)
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
					return nil
				}
				if err := bq.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				opts.log.Info().Msg("BigQuery schema ensured")
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
				return nil
			})
		},
	}
}
