package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	EnvVarPrefix = "INFLATE"

	DefaultConfigFile         = "inflate.toml"
	DefaultNumWorkers         = 2
	DefaultCheckpointInterval = duration(5 * time.Second)
	DefaultCheckpointFile     = "checkpoint.json"
	DefaultFormat             = "auto"
	DefaultDestinationType    = "discard"
	DefaultLogLevel           = "info"

	MinNumWorkers         = 1
	MaxNumWorkers         = 100
	MinCheckpointInterval = duration(1 * time.Millisecond)
	MaxCheckpointInterval = duration(1 * time.Hour)
	MaxOutputSize         = 1 << 30
)

var (
	// VERSION gets set during build
	VERSION = "0.0.0"

	validFormats = map[string]struct{}{
		"auto":    {},
		"raw":     {},
		"deflate": {},
		"gzip":    {},
		"zlib":    {},
	}

	validDestinationTypes = map[string]struct{}{
		"file":    {},
		"redis":   {},
		"discard": {},
	}
)

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Config      *TOMLConfig      `toml:"config"`
	Source      *TOMLSource      `toml:"source"`
	Destination *TOMLDestination `toml:"destination"`
}

type TOMLConfig struct {
	LogLevel             string   `toml:"log_level"`
	NumWorkers           int      `toml:"num_workers"`
	MaxOutputSize        int      `toml:"max_output_size"`
	CheckpointFile       string   `toml:"checkpoint_file"`
	CheckpointInterval   duration `toml:"checkpoint_interval"`
	DisableCheckpointing bool     `toml:"disable_checkpointing"`
	ContinueOnError      bool     `toml:"continue_on_error"`
}

type TOMLSource struct {
	Files  string `toml:"files"` // glob
	Format string `toml:"format"`
}

type TOMLDestination struct {
	Type      string   `toml:"type"`
	Dir       string   `toml:"dir"`
	Addr      string   `toml:"addr"`
	Password  string   `toml:"password"`
	DB        int      `toml:"db"`
	KeyPrefix string   `toml:"key_prefix"`
	TTL       duration `toml:"ttl"`
}

type CLI struct {
	Input         string `kong:"arg,optional,help='Compressed input file (stdin when empty or -)'"`
	ConfigFile    string `kong:"help='Path to the TOML config file',type='path',default='inflate.toml',short='c'"`
	Output        string `kong:"help='Write decoded output to this file',short='o'"`
	Format        string `kong:"help='Input format: auto, raw, gzip or zlib (overrides source.format)',short='f'"`
	Batch         bool   `kong:"help='Decode every file matched by source.files',short='b'"`
	DryRun        bool   `kong:"help='Decode but do not write output',short='n'"`
	DisableResume bool   `kong:"help='Ignore an existing checkpoint',short='R'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Disable showing pre/post output',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

func NewConfig() (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs()
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	return newConfig(cli)
}

func newConfig(cli *CLI) (*Config, error) {
	tomlConfig, err := readTOML(cli.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	applyCLIOverrides(cli, tomlConfig)

	cfg := &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogLevel returns the level to run at; --debug wins over config.log_level.
func (c *Config) LogLevel() logrus.Level {
	if c.CLI != nil && c.CLI.Debug {
		return logrus.DebugLevel
	}

	lvl, err := logrus.ParseLevel(c.TOML.Config.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return lvl
}

func applyCLIOverrides(cli *CLI, t *TOML) {
	if cli.Format != "" {
		t.Source.Format = cli.Format
	}

	if cli.DryRun {
		t.Destination.Type = "discard"
	}
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Config == nil {
		t.Config = &TOMLConfig{}
	}

	if t.Source == nil {
		t.Source = &TOMLSource{}
	}

	if t.Destination == nil {
		t.Destination = &TOMLDestination{}
	}

	// Set defaults for [config]
	if t.Config.LogLevel == "" {
		t.Config.LogLevel = DefaultLogLevel
	}

	if t.Config.NumWorkers == 0 {
		t.Config.NumWorkers = DefaultNumWorkers
	}

	if t.Config.CheckpointInterval == 0 {
		t.Config.CheckpointInterval = DefaultCheckpointInterval
	}

	if t.Config.CheckpointFile == "" {
		t.Config.CheckpointFile = DefaultCheckpointFile
	}

	// Set defaults for [source]
	if t.Source.Format == "" {
		t.Source.Format = DefaultFormat
	}

	// Set defaults for [destination]
	if t.Destination.Type == "" {
		t.Destination.Type = DefaultDestinationType
	}

	return nil
}

func Validate(c *Config) error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateCLIArgs(c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}

	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}

	if c.CLI.Batch && c.TOML.Source.Files == "" {
		return errors.New("source.files must be set in batch mode")
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	// Validate [config]
	if err := validateTOMLConfig(t.Config); err != nil {
		return errors.Wrap(err, "config error(s)")
	}

	// Validate [source]
	if err := validateTOMLSource(t.Source); err != nil {
		return errors.Wrap(err, "error validating toml [source]")
	}

	// Validate [destination]
	if err := validateTOMLDestination(t.Destination); err != nil {
		return errors.Wrap(err, "destination error(s)")
	}

	return nil
}

func validateTOMLConfig(c *TOMLConfig) error {
	if c == nil {
		return errors.New("config cannot be empty")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Errorf("config.log_level %s is invalid", c.LogLevel)
	}

	if c.NumWorkers < MinNumWorkers || c.NumWorkers > MaxNumWorkers {
		return errors.Errorf("config.num_workers must be between %d and %d", MinNumWorkers, MaxNumWorkers)
	}

	if c.MaxOutputSize < 0 || c.MaxOutputSize > MaxOutputSize {
		return errors.Errorf("config.max_output_size must be between 0 and %d", MaxOutputSize)
	}

	if c.CheckpointInterval < MinCheckpointInterval || c.CheckpointInterval > MaxCheckpointInterval {
		return errors.Errorf("config.checkpoint_interval must be between %s and %s", MinCheckpointInterval, MaxCheckpointInterval)
	}

	if c.CheckpointFile == "" && !c.DisableCheckpointing {
		return errors.New("config.checkpoint_file cannot be empty")
	}

	return nil
}

func validateTOMLSource(s *TOMLSource) error {
	if s == nil {
		return errors.New("source cannot be empty")
	}

	if _, ok := validFormats[s.Format]; !ok {
		return errors.Errorf("source.format %s is invalid", s.Format)
	}

	if s.Files == "" {
		return nil
	}

	if _, err := filepath.Match(s.Files, ""); err != nil {
		return errors.Wrapf(err, "source.files %s is not a valid pattern", s.Files)
	}

	return nil
}

func validateTOMLDestination(d *TOMLDestination) error {
	if d == nil {
		return errors.New("destination cannot be empty")
	}

	if _, ok := validDestinationTypes[d.Type]; !ok {
		return errors.Errorf("destination.type %s is invalid", d.Type)
	}

	switch d.Type {
	case "file":
		if d.Dir == "" {
			return errors.New("destination.dir cannot be empty")
		}
	case "redis":
		if d.Addr == "" {
			return errors.New("destination.addr cannot be empty")
		}

		if d.DB < 0 {
			return errors.New("destination.db cannot be negative")
		}

		if d.TTL < 0 {
			return errors.New("destination.ttl cannot be negative")
		}
	}

	return nil
}

func readCLIArgs() (*CLI, error) {
	cli := &CLI{}
	cli.Ctx = kong.Parse(cli,
		kong.Name("inflate"),
		kong.Description("DEFLATE / gzip / zlib decoder"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

// readTOML loads the config file. A missing file is only an error when it
// was asked for explicitly.
func readTOML(file string) (*TOML, error) {
	tomlConfig := &TOML{}

	// Attempt to load file
	data, err := os.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) || filepath.Base(file) != DefaultConfigFile {
			return nil, errors.Wrap(err, "error reading file")
		}

		data = nil
	}

	if err := toml.Unmarshal(data, tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML config")
	}

	// Set defaults
	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	return tomlConfig, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if cli.Batch && cli.Input != "" {
		return errors.New("an input file cannot be given in batch mode")
	}

	if cli.Batch && cli.Output != "" {
		return errors.New("--output cannot be used in batch mode, set destination.dir")
	}

	return nil
}

// Copied from https://www.kelche.co/blog/go/toml/
type duration time.Duration

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}

func (d duration) String() string {
	return time.Duration(d).String()
}

func (d duration) Duration() time.Duration {
	return time.Duration(d)
}
