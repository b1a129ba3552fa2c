package main

import (
	"context"
	"fmt"
	"os"

	"github.com/asnowfix/myvaillant/hlog"
	"github.com/asnowfix/myvaillant/internal/debug"
	"github.com/asnowfix/myvaillant/internal/global"
	"github.com/asnowfix/myvaillant/myvaillant/gateway"
	"github.com/asnowfix/myvaillant/myvaillant/options"
	"github.com/asnowfix/myvaillant/pkg/vaillant"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Session is an open myVAILLANT session, as used by the commands
type Session interface {
	gateway.Session
	Homes(ctx context.Context) ([]vaillant.Home, error)
}

// Dialer logs in with the account of the given configuration
type Dialer func(ctx context.Context, cfg *options.Config) (Session, error)

func dialVaillant(ctx context.Context, cfg *options.Config) (Session, error) {
	c, err := vaillant.New(ctx, cfg.User, cfg.Password, cfg.Brand, cfg.Country,
		vaillant.WithHTTPLogger(hlog.GetPinnedLogger("myvaillant/http", zerolog.InfoLevel)))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newRootCmd(dial Dialer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "myvaillant",
		Short:         "Read and control a Vaillant heating system through the myVAILLANT cloud",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	options.AddFlags(flags)

	v, err := options.NewViper(flags)
	if err != nil {
		panic(err)
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := flags.GetBool("verbose")
		hlog.Init(verbose)
		log := hlog.Logger

		envFile := flags.Lookup("env-file")
		if err := options.LoadEnvFile(log, envFile.Value.String(), envFile.Changed); err != nil {
			return err
		}
		configFile, _ := flags.GetString("config")
		if err := options.ReadConfigFile(log, v, configFile); err != nil {
			return err
		}

		wait := v.GetDuration("wait")
		if debug.IsDebuggerAttached() {
			log.Info("Running under debugger (will wait forever)")
			wait = 0
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(options.CommandLineContext(ctx, log, wait, getVersion()))
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		global.Cancel(cmd.Context())
		return nil
	}

	cmd.AddCommand(
		newGatewayCmd(v, flags, dial, gateway.Status, "Print flow, tank and outside temperatures and the water pressure"),
		newGatewayCmd(v, flags, dial, gateway.DHWMode, "Switch domestic hot water on (--arg on) or off"),
		newGatewayCmd(v, flags, dial, gateway.DHWTemperature, "Set the domestic hot water temperature (--arg <integer °C>)"),
		newGatewayCmd(v, flags, dial, gateway.FlowTemperature, "Set a quick veto on the first zone (--arg <°C>), or cancel it with --arg 5 or less"),
		newSystemsCmd(v, dial),
		newVersionCmd(),
	)
	return cmd
}

func main() {
	cobra.EnableTraverseRunHooks = true
	err := newRootCmd(dialVaillant).Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
