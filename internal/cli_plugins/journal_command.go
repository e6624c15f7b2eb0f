package cliplugins

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"truckping/internal/config"
	"truckping/internal/journal"
)

const defaultJournalLimit = 20

// JournalCommand prints the most recent acknowledged pings.
type JournalCommand struct {
	cmd  *cobra.Command
	opts *Options
}

func NewJournalCommand(opts *Options) *JournalCommand {
	return &JournalCommand{opts: opts}
}

func (c *JournalCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "journal",
		Short: "Show recent pings",
		Args:  cobra.NoArgs,
	}
	c.cmd.Flags().IntP("limit", "n", defaultJournalLimit, "number of entries to show")
	return c.cmd
}

func (c *JournalCommand) Execute(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil || limit <= 0 {
		return fmt.Errorf("flag --limit must be positive")
	}

	cfg, err := config.LoadTruck(c.opts.ConfigPath)
	if err != nil {
		return err
	}

	log, closer, err := setupLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := journal.Open(cfg.Journal, log)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %-15s %-15s %7s %6s %s\n", "at", "truck_id", "user_id", "eta_min", "queued", "addr / note")
	for _, e := range entries {
		fmt.Fprintf(out, "%-20s %-15s %-15s %7d %6d %q / %q\n",
			e.At.Local().Format(time.DateTime), e.VendorID, e.UserID, e.ETAMinutes, e.Queued, e.Address, e.Note)
	}
	return nil
}
