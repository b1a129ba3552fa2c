package main

import (
	"context"
	"fmt"

	"github.com/asnowfix/myvaillant/hlog"
	"github.com/asnowfix/myvaillant/mymqtt"
	"github.com/asnowfix/myvaillant/myvaillant/gateway"
	"github.com/asnowfix/myvaillant/myvaillant/options"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newGatewayCmd(v *viper.Viper, flags *pflag.FlagSet, dial Dialer, c gateway.Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   c.String(),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := flags.Lookup("arg")
			cfg, err := options.NewConfig(v, c.String(), arg.Value.String(), arg.Changed)
			if err != nil {
				return err
			}
			return runGateway(cmd, cfg, dial)
		},
	}
}

func runGateway(cmd *cobra.Command, cfg *options.Config, dial Dialer) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("Running", "config", cfg.Redacted())

	out, err := gateway.Call(ctx, func(ctx context.Context) (gateway.Session, error) {
		return dial(ctx, cfg)
	}, cfg.Request())
	if err != nil {
		return fmt.Errorf("%s login for %s failed: %w", cfg.Brand, cfg.User, err)
	}

	data, err := options.PrintResult(cmd.OutOrStdout(), out)
	if err != nil {
		return err
	}
	publish(ctx, log, cfg, data)
	return nil
}

// publish also sends the result to MQTT when asked to. Failures are only logged:
// the result was already printed.
func publish(ctx context.Context, log logr.Logger, cfg *options.Config, data []byte) {
	if cfg.Publish == "" {
		return
	}
	err := mymqtt.Publish(ctx, log.WithName("mqtt"), mymqtt.Options{
		Broker:   cfg.MqttBroker,
		Username: cfg.MqttUser,
		Password: cfg.MqttPassword,
		Timeout:  options.MQTT_DEFAULT_TIMEOUT,
	}, cfg.Publish, data)
	hlog.ErrorIfNotCanceled(log, err, "Failed to publish result", "topic", cfg.Publish)
}

func newSystemsCmd(v *viper.Viper, dial Dialer) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "systems",
		Short: "List the homes and system IDs of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := options.NewAccount(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logr.FromContextOrDiscard(ctx)

			session, err := dial(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%s login for %s failed: %w", cfg.Brand, cfg.User, err)
			}
			defer func() {
				if err := session.Close(); err != nil {
					log.Error(err, "Failed to close session")
				}
			}()

			homes, err := session.Homes(ctx)
			if err != nil {
				return err
			}
			if asYAML {
				return options.PrintYAML(cmd.OutOrStdout(), homes)
			}
			_, err = options.PrintResult(cmd.OutOrStdout(), homes)
			return err
		},
	}
	cmd.Flags().BoolVarP(&asYAML, "yaml", "y", false, "Print as YAML instead of JSON")
	return cmd
}
