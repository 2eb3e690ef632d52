// Package main implements saldo, the command-line companion of the chat
// bot. It works directly against the configured store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/saldo-certo/internal/app"
	"github.com/dvloznov/saldo-certo/internal/config"
	"github.com/dvloznov/saldo-certo/internal/logger"
	"github.com/dvloznov/saldo-certo/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	userID     string
	cfg        *config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "saldo",
		Short: "Inspect and maintain saldo-certo data",
		Long: `saldo runs the transaction interpreter and reads the ledger used by the
saldo-certo chat bot.

Examples:
  # Try the interpreter without storing anything
  saldo interpret "gastei 50 no mercado e recebi 200 de salário"

  # Current balance and month report of a chat user
  saldo balance --user 12345
  saldo report --user 12345

  # Write all transactions of a user to a CSV file
  saldo export --user 12345 --out transacoes.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			log, err := logger.NewFromConfig(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = log
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("SALDOCERTO_CONFIG"), "path to YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.userID, "user", "u", "", "chat user ID")

	cmd.AddCommand(
		newInterpretCmd(opts),
		newBalanceCmd(opts),
		newReportCmd(opts),
		newExportCmd(opts),
		newLearnCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// withStore opens the configured store and runs fn with it.
func (o *rootOptions) withStore(ctx context.Context, fn func(st store.Store) error) error {
	st, err := app.OpenStore(ctx, o.cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(st)
}

func (o *rootOptions) requireUser() error {
	if o.userID == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
