package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
	"gitlab.com/kavenc/prismabot/internal/pkg/responder"
	"gitlab.com/kavenc/prismabot/internal/pkg/whatsapp"
)

// options holds the command line, flags win over the environment
type options struct {
	envFile   string
	overrides map[string]string
}

func parseFlags(args []string) (*options, error) {
	flags := pflag.NewFlagSet("prismabot", pflag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "file with environment variables to load")
	port := flags.StringP("port", "p", "", "port of the liveness server (PORT)")
	script := flags.String("script", "", "conversation script, the built-in one when empty (SCRIPT_PATH)")
	assets := flags.String("assets", "", "directory of the media files (ASSETS_DIR)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	opts := &options{envFile: *envFile, overrides: make(map[string]string)}
	for name, flag := range map[string]struct {
		key   string
		value *string
	}{
		"port":   {"PORT", port},
		"script": {"SCRIPT_PATH", script},
		"assets": {"ASSETS_DIR", assets},
	} {
		if flags.Changed(name) {
			opts.overrides[flag.key] = *flag.value
		}
	}
	return opts, nil
}

func (o *options) lookup(key string) (string, bool) {
	if value, ok := o.overrides[key]; ok {
		return value, true
	}
	return os.LookupEnv(key)
}

func buildPlugins(config *prismabot.Config) ([]prismabot.Plugin, error) {
	script, err := responder.LoadScript(config.ScriptPath)
	if err != nil {
		return nil, err
	}
	book, err := script.Compile(responder.Options{
		PacingDelay: config.PacingDelay,
		Trim:        config.Trim,
	})
	if err != nil {
		return nil, err
	}

	archiveName := config.ArchiveName
	if config.ArchiveDisabled {
		archiveName = ""
	}
	return []prismabot.Plugin{
		whatsapp.New(whatsapp.Config{
			StorePath:       config.StorePath,
			QROutputPath:    config.QROutputPath,
			ArchiveName:     archiveName,
			ArchiveInterval: config.ArchiveInterval,
		}),
		responder.NewService(book, responder.NewAssetStore(config.AssetsDir), config.HandlerTimeout),
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}
	if err = prismabot.LoadEnvFile(opts.envFile); err != nil {
		logrus.Fatalf("failed to load %s: %s", opts.envFile, err.Error())
	}
	config, err := prismabot.LoadConfig(opts.lookup)
	if err != nil {
		logrus.Fatalf("invalid configuration: %s", err.Error())
	}
	if err = prismabot.SetupLogging(config.LogLevel, config.LogFormat); err != nil {
		logrus.Fatal(err)
	}

	plugins, err := buildPlugins(config)
	if err != nil {
		logrus.Fatalf("failed to load conversation script: %s", err.Error())
	}
	session, err := prismabot.NewSession(config.Session(), plugins)
	if err != nil {
		logrus.Fatalf("failed to create session: %s", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	session.Start(ctx)
}
