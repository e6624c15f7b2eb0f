package cliplugins

import (
	"github.com/spf13/cobra"

	"truckping/internal/config"
	"truckping/internal/node"
)

// ServeCommand runs the truck until interrupted.
type ServeCommand struct {
	cmd  *cobra.Command
	opts *Options
}

func NewServeCommand(opts *Options) *ServeCommand {
	return &ServeCommand{opts: opts}
}

func (c *ServeCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Advertise this truck and answer pings",
		Long:  "Broadcasts presence heartbeats on the multicast group and acknowledges pings on the TCP port until interrupted.",
		Args:  cobra.NoArgs,
	}
	c.cmd.Flags().String("id", "", "truck id (overrides config)")
	c.cmd.Flags().String("listen", "", "TCP listen address (overrides config)")
	return c.cmd
}

func (c *ServeCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadTruck(c.opts.ConfigPath)
	if err != nil {
		return err
	}
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		cfg.TruckID = id
	}
	if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
		cfg.Dispatch.ListenAddr = addr
	}

	log, closer, err := setupLogger(cfg.Log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closer.Close()

	truck, err := node.NewTruck(cfg, log)
	if err != nil {
		return err
	}
	defer truck.Close()

	return truck.Run(cmd.Context())
}
