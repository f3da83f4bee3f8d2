package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/dselans/inflate/batch"
	"github.com/dselans/inflate/config"
	"github.com/dselans/inflate/container"
	"github.com/dselans/inflate/inflate"
	"github.com/dselans/inflate/sink"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	logrus.SetLevel(cfg.LogLevel())

	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
	}

	if !cfg.CLI.Quiet {
		displayConfig(cfg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fs := afero.NewOsFs()

	if cfg.CLI.Batch {
		if err := runBatch(ctx, cfg, fs); err != nil {
			logrus.Errorf("error during batch run: %s", err)
			os.Exit(1)
		}

		return
	}

	result := resultWriter(cfg, os.Stdout, os.Stderr)

	res, err := runSingle(cfg, fs, os.Stdin, os.Stdout)
	if err != nil {
		logrus.Errorf("unable to decode input: %s", err)
		fmt.Fprintln(result, "Failed")
		os.Exit(1)
	}

	fmt.Fprintf(result, "Success: %d bytes\n", len(res.Data))
}

// resultWriter picks where the Success/Failed line goes: stdout, unless
// stdout is carrying the decoded data.
func resultWriter(cfg *config.Config, stdout, stderr io.Writer) io.Writer {
	if cfg.CLI.Output == "-" && !cfg.CLI.DryRun {
		return stderr
	}

	return stdout
}

// runSingle decodes one stream from cfg.CLI.Input (stdin when empty or "-")
// and writes it to cfg.CLI.Output (stdout for "-", nowhere when empty).
func runSingle(cfg *config.Config, fs afero.Fs, stdin io.Reader, stdout io.Writer) (*container.Result, error) {
	format, err := container.ParseFormat(cfg.TOML.Source.Format)
	if err != nil {
		return nil, err
	}

	in := stdin

	if cfg.CLI.Input != "" && cfg.CLI.Input != "-" {
		f, err := fs.Open(cfg.CLI.Input)
		if err != nil {
			return nil, errors.Wrap(err, "unable to open input file")
		}
		defer f.Close()

		in = f
	}

	res, err := container.Decode(in, format, &inflate.Options{
		MaxOutputSize: cfg.TOML.Config.MaxOutputSize,
	})
	if err != nil {
		return nil, err
	}

	logrus.Debugf("decoded %s stream: '%d' stored, '%d' fixed, '%d' dynamic blocks, '%d' -> '%d' bytes",
		res.Format, res.Stats.StoredBlocks, res.Stats.FixedBlocks, res.Stats.DynamicBlocks,
		res.Stats.BytesIn, res.Stats.BytesOut)

	switch {
	case cfg.CLI.DryRun || cfg.CLI.Output == "":
	case cfg.CLI.Output == "-":
		if _, err := stdout.Write(res.Data); err != nil {
			return nil, errors.Wrap(err, "unable to write output")
		}
	default:
		if err := afero.WriteFile(fs, cfg.CLI.Output, res.Data, 0644); err != nil {
			return nil, errors.Wrap(err, "unable to write output file")
		}
	}

	return res, nil
}

func runBatch(ctx context.Context, cfg *config.Config, fs afero.Fs) error {
	s, err := sink.New(cfg.TOML.Destination, fs)
	if err != nil {
		return errors.Wrap(err, "unable to create destination")
	}
	defer s.Close()

	b, err := batch.New(cfg, fs, s)
	if err != nil {
		return errors.Wrap(err, "unable to create batch")
	}

	report, err := b.Run(ctx)

	if !cfg.CLI.Quiet && report != nil {
		logrus.Infof("decoded '%d' files (%d skipped, %d failed): '%d' -> '%d' bytes",
			report.Files, report.Skipped, report.Failed, report.BytesIn, report.BytesOut)
	}

	return err
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Info("inflate settings:")
	logrus.Info("  [CLI]")
	logrus.Infof("  version: %s", config.VERSION)
	logrus.Infof("  debug: %v", cfg.CLI.Debug)
	logrus.Infof("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Infof("  input: %s", cfg.CLI.Input)
	logrus.Infof("  output: %s", cfg.CLI.Output)
	logrus.Infof("  batch: %v", cfg.CLI.Batch)
	logrus.Infof("  dry run: %v", cfg.CLI.DryRun)
	logrus.Infof("  disable resume: %v", cfg.CLI.DisableResume)
	logrus.Info("")
	logrus.Info("  [CONFIG]")
	logrus.Infof("  config.log_level: %s", cfg.TOML.Config.LogLevel)
	logrus.Infof("  config.num_workers: %d", cfg.TOML.Config.NumWorkers)
	logrus.Infof("  config.max_output_size: %d", cfg.TOML.Config.MaxOutputSize)
	logrus.Infof("  config.checkpoint_file: %s", cfg.TOML.Config.CheckpointFile)
	logrus.Infof("  config.checkpoint_interval: %s", cfg.TOML.Config.CheckpointInterval)
	logrus.Infof("  config.disable_checkpointing: %v", cfg.TOML.Config.DisableCheckpointing)
	logrus.Infof("  config.continue_on_error: %v", cfg.TOML.Config.ContinueOnError)
	logrus.Info("")
	logrus.Info("  [SOURCE]")
	logrus.Infof("  source.files: %s", cfg.TOML.Source.Files)
	logrus.Infof("  source.format: %s", cfg.TOML.Source.Format)
	logrus.Info("")
	logrus.Info("  [DESTINATION]")
	logrus.Infof("  destination.type: %s", cfg.TOML.Destination.Type)

	switch cfg.TOML.Destination.Type {
	case "file":
		logrus.Infof("  destination.dir: %s", cfg.TOML.Destination.Dir)
	case "redis":
		logrus.Infof("  destination.addr: %s", cfg.TOML.Destination.Addr)
		logrus.Infof("  destination.db: %d", cfg.TOML.Destination.DB)
		logrus.Infof("  destination.key_prefix: %s", cfg.TOML.Destination.KeyPrefix)
		logrus.Infof("  destination.ttl: %s", cfg.TOML.Destination.TTL)
	}
}
