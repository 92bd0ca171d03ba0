package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/lingo-session/internal/config"
)

type forgetConfig struct {
	all bool
}

func newForgetCmd() *cobra.Command {
	cfg := &forgetConfig{}

	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Forget the remembered sign-in",
		Long: `Remove the remembered identity from the encrypted session store.
With --all every value in the store namespace is removed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForget(cmd, cfg, config.New())
		},
	}

	cmd.Flags().BoolVar(&cfg.all, "all", false, "clear the whole store namespace")

	return cmd
}

func runForget(cmd *cobra.Command, cfg *forgetConfig, appConfig config.Config) error {
	store, err := openSecureStore(appConfig, zerolog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.all {
		if err := store.adapter.Clear(); err != nil {
			return err
		}
		cmd.Println("Session store cleared.")
		return nil
	}
	if err := store.records.Remove(); err != nil {
		return err
	}
	cmd.Println("Remembered sign-in removed.")
	return nil
}
