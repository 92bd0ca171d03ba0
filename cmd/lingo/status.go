package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/lingo-session/internal/config"
)

// RememberedStatus is what the status command reports. It never includes tokens.
type RememberedStatus struct {
	Remembered bool   `json:"remembered"`
	RememberMe bool   `json:"rememberMe"`
	UserID     string `json:"userId,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
}

type statusConfig struct {
	jsonOutput bool
}

func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the remembered sign-in",
		Long:  `Show the identity remembered in the encrypted session store, if any.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg, config.New())
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig, appConfig config.Config) error {
	store, err := openSecureStore(appConfig, zerolog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()

	status := RememberedStatus{}
	if remembered, ok := store.records.Load(); ok && remembered.User != nil {
		status.Remembered = true
		status.RememberMe = remembered.RememberMe
		status.UserID = remembered.User.ID
		status.Email = remembered.User.Email
		status.Name = remembered.User.FirstName
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if !status.Remembered {
		cmd.Println("No remembered sign-in.")
		return nil
	}
	cmd.Printf("Remembered: %s (%s)\n", status.Email, status.UserID)
	return nil
}
