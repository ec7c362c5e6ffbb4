package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthapi/hearth/internal/token"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired access tokens",
		Long:  "Run a single pass of the token expiry sweep that the server schedules periodically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep()
		},
	}

	return cmd
}

func runSweep() error {
	cfg := loadConfig()
	logger := newLogger(cfg.Logging)

	st, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	res := token.NewSweeper(st, logger).Run(context.Background())
	fmt.Printf("Swept access tokens: %d scanned, %d removed, %d failed\n",
		res.Scanned, res.Removed, res.Failed)
	return nil
}
