package cliplugins

import (
	"fmt"

	"github.com/spf13/cobra"

	"truckping/internal/config"
	"truckping/internal/node"
	"truckping/internal/view"
	"truckping/internal/wire"
)

// PingCommand sends one request to a truck and prints its acknowledge.
type PingCommand struct {
	cmd  *cobra.Command
	opts *Options
}

func NewPingCommand(opts *Options) *PingCommand {
	return &PingCommand{opts: opts}
}

func (c *PingCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "ping",
		Short: "Ask a truck to come over",
		Long:  "Listens for presence for the warm-up period, then sends one ping to the truck and prints the acknowledge.",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			cobra.BashCompOneRequiredFlag: "true",
		},
	}
	c.cmd.Flags().StringP("truck", "t", "", "truck id to ping (required)")
	c.cmd.Flags().StringP("user", "u", "", "your user id (overrides config)")
	c.cmd.Flags().String("addr", "", "delivery address")
	c.cmd.Flags().String("note", "", "free-text note")
	addUserFlags(c.cmd)
	return c.cmd
}

func (c *PingCommand) Execute(cmd *cobra.Command, args []string) error {
	truckID, err := cmd.Flags().GetString("truck")
	if err != nil || truckID == "" {
		return fmt.Errorf("flag --truck is required")
	}

	cfg, err := config.LoadClient(c.opts.ConfigPath)
	if err != nil {
		return err
	}
	applyUserFlags(cmd, cfg)
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		cfg.UserID = user
	}
	addr, _ := cmd.Flags().GetString("addr")
	note, _ := cmd.Flags().GetString("note")

	log, closer, err := setupLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	consumer, err := node.NewConsumer(cfg, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ack, err := consumer.Ping(cmd.Context(), wire.Request{
		TruckID: wire.MakeID(truckID),
		UserID:  wire.MakeID(cfg.UserID),
		Address: wire.MakeAddress(addr),
		Note:    wire.MakeNote(note),
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), view.FormatAcknowledge(ack))
	return err
}
