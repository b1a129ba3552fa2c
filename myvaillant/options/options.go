package options

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asnowfix/myvaillant/internal/global"
	"github.com/asnowfix/myvaillant/myvaillant/gateway"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v2"
)

const COMMAND_DEFAULT_TIMEOUT time.Duration = 1 * time.Minute // 0 = wait indefinitely

const MQTT_DEFAULT_TIMEOUT time.Duration = 14 * time.Second

const ENV_PREFIX = "VAILLANT"

const DEFAULT_ENV_FILE = ".env"

// CommandLineContext returns the context of one invocation: cancelled on SIGINT/SIGTERM,
// after timeout (if any), or when the CancelFunc stored under global.CancelKey is called.
func CommandLineContext(ctx context.Context, log logr.Logger, timeout time.Duration, version string) context.Context {
	var cancel context.CancelFunc

	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	ctx = context.WithValue(ctx, global.CancelKey, cancel)
	ctx = context.WithValue(ctx, global.VersionKey, version)
	ctx = logr.NewContext(ctx, log)

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case <-signals:
			log.Info("Received signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

// PrintResult writes the one JSON document of an invocation
func PrintResult(w io.Writer, out any) ([]byte, error) {
	data, err := gateway.Encode(out)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// PrintYAML is for listings meant to be read by humans
func PrintYAML(w io.Writer, out any) error {
	s, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = w.Write(s)
	return err
}
