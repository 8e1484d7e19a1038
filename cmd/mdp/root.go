package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/cmd/mdp/config"
)

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "mdp",
		Short: "Metric differential privacy for token sequences",
		Long: `mdp replaces the tokens of id sequences by the nearest neighbors of their
noisy embeddings. Build an index once, then privatize sequences against it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.mdp.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("storage-backend", "", "snapshot storage backend (local, minio, s3)")
	cmd.PersistentFlags().String("storage-root", "", "root directory of the local backend")
	cmd.PersistentFlags().String("snapshot", "", "snapshot name inside the storage backend")
	cmd.PersistentFlags().String("vocab", "", "vocabulary file, one token per line")
	cmd.PersistentFlags().String("vectors", "", "embedding matrix in fvecs format")

	_ = opts.v.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = opts.v.BindPFlag("storage.backend", cmd.PersistentFlags().Lookup("storage-backend"))
	_ = opts.v.BindPFlag("storage.root", cmd.PersistentFlags().Lookup("storage-root"))
	_ = opts.v.BindPFlag("index.snapshot", cmd.PersistentFlags().Lookup("snapshot"))
	_ = opts.v.BindPFlag("vocab", cmd.PersistentFlags().Lookup("vocab"))
	_ = opts.v.BindPFlag("vectors", cmd.PersistentFlags().Lookup("vectors"))

	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newPrivatizeCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	config.SetDefaults(o.v)

	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		o.v.AddConfigPath(home)
		o.v.SetConfigType("yaml")
		o.v.SetConfigName(".mdp")
	}

	o.v.SetEnvPrefix("MDP")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	o.v.AutomaticEnv()

	if err := o.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok { //nolint:errorlint // viper returns the value type unwrapped
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if used := o.v.ConfigFileUsed(); used != "" {
		cmd.PrintErrln("Using config file:", used)
	}
	return nil
}

func (o *rootOptions) config() (*config.Config, error) {
	return config.FromViper(o.v)
}

func newLogger(cmd *cobra.Command, level string) (*metricdp.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return metricdp.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})), nil
}
