// Package portal boots the proxy from the configuration.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/portalmc/portal/internal/console"
	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/proxy"
)

// Options are the start options of the proxy.
type Options struct {
	// ConfigFile is the path of the config file to load.
	// If empty, config.yml in the working directory is tried.
	ConfigFile string
	// Bind overrides the bind address of the config, if non-empty.
	Bind string
	// Debug enables debug logging.
	Debug bool
	// NoConsole disables the interactive console.
	NoConsole bool
}

// Run loads the config, initializes the logger and runs the proxy
// until ctx is canceled or an error occurs.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("error initializing logger: %w", err)
	}

	warns, errs := cfg.Validate()
	for _, w := range warns {
		log.Info("config warning", "warn", w.Error())
	}
	if len(errs) != 0 {
		for _, e := range errs {
			log.Error(e, "config error")
		}
		return fmt.Errorf("config validation failed with %d errors", len(errs))
	}

	p, err := proxy.New(*cfg, log)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return p.Start(ctx) })
	if !opts.NoConsole {
		eg.Go(func() error {
			console.New(p, log).Run(ctx)
			return nil
		})
	}
	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadConfig(opts Options) (*config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Defaults only.
	}

	if opts.Bind != "" {
		v.Set("bind", opts.Bind)
	}
	if opts.Debug {
		v.Set("debug", true)
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// newLogger builds the console logger the proxy logs with.
func newLogger(debug bool) (logr.Logger, error) {
	var zc zap.Config
	if debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zc.Build()
	if err != nil {
		return logr.Logger{}, err
	}
	return zapr.NewLogger(zl), nil
}
