package cliplugins

import (
	"github.com/spf13/cobra"

	"truckping/internal/config"
	"truckping/internal/node"
	"truckping/internal/view"
)

// ListCommand shows nearby trucks, redrawing every refresh interval.
type ListCommand struct {
	cmd  *cobra.Command
	opts *Options
}

func NewListCommand(opts *Options) *ListCommand {
	return &ListCommand{opts: opts}
}

func (c *ListCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "list",
		Short: "Show trucks ranked by distance",
		Args:  cobra.NoArgs,
	}
	addUserFlags(c.cmd)
	c.cmd.Flags().Float64("near", 0, "nearby alert radius in km (overrides config)")
	c.cmd.Flags().Bool("bell", true, "ring the terminal bell on nearby alerts")
	return c.cmd
}

func (c *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClient(c.opts.ConfigPath)
	if err != nil {
		return err
	}
	applyUserFlags(cmd, cfg)
	if near, _ := cmd.Flags().GetFloat64("near"); near > 0 {
		cfg.NearKM = near
	}
	bell, _ := cmd.Flags().GetBool("bell")

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

	out := cmd.OutOrStdout()
	return consumer.List(cmd.Context(), out, view.Options{
		NearKM: cfg.NearKM,
		Color:  colorEnabled(out),
		Bell:   bell,
	})
}

func addUserFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("user-lat", 0, "your latitude (overrides config)")
	cmd.Flags().Float64("user-lon", 0, "your longitude (overrides config)")
}

func applyUserFlags(cmd *cobra.Command, cfg *config.Client) {
	if cmd.Flags().Changed("user-lat") {
		cfg.Lat, _ = cmd.Flags().GetFloat64("user-lat")
	}
	if cmd.Flags().Changed("user-lon") {
		cfg.Lon, _ = cmd.Flags().GetFloat64("user-lon")
	}
}
