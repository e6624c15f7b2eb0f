// Package cliplugins holds the truck and client subcommands.
package cliplugins

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"truckping/internal/config"
	"truckping/internal/util/logger"
	"truckping/internal/view"
)

// Options are shared by every command of one binary.
type Options struct {
	ConfigPath string
}

// Bind registers the persistent flags on root.
func (o *Options) Bind(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", "", "path to config file (or CONFIG_PATH)")
}

func setupLogger(l config.Log, out io.Writer) (*slog.Logger, io.Closer, error) {
	return logger.Setup(l.Env, l.File, out)
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && view.IsTerminal(f)
}
