package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	goBreach "github.com/MrEthical07/goBreach"
	"github.com/MrEthical07/goBreach/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK       = 0
	exitBreached = 1
	exitError    = 2
)

var version = "0.1.0"

// errBreached makes a command exit with status 1 without printing an error.
var errBreached = errors.New("breached")

type globalFlags struct {
	configPath  string
	endpoint    string
	userAgent   string
	noPadding   bool
	timeout     time.Duration
	redisAddr   string
	logLevel    string
	concurrency int
}

// app carries the streams and injectable dependencies shared by all commands.
type app struct {
	flags globalFlags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// readPassword reads a secret from the controlling terminal.
	readPassword func(prompt string) ([]byte, error)
	httpClient   *http.Client
	workDir      string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		stdin:        stdin,
		stdout:       stdout,
		stderr:       stderr,
		readPassword: terminalPassword(stdin, stderr),
	}
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errBreached):
		return exitBreached
	default:
		fmt.Fprintln(a.stderr, "error:", err)
		return exitError
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pwncheck",
		Short:         "Check passwords against Have I Been Pwned",
		Long:          "pwncheck looks up passwords in the Pwned Passwords corpus using k-anonymity: only the first five characters of the SHA-1 digest are sent.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default: .pwncheck.yml, then $XDG_CONFIG_HOME/pwncheck/config.yml)")
	pf.StringVar(&a.flags.endpoint, "endpoint", "", "range API base URL")
	pf.StringVar(&a.flags.userAgent, "user-agent", "", "User-Agent sent with every request")
	pf.BoolVar(&a.flags.noPadding, "no-padding", false, "do not request padded responses")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "per-request timeout")
	pf.StringVar(&a.flags.redisAddr, "redis-addr", "", "redis address for shared availability state and lookup budgets")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug|info|warn|error (default warn)")
	pf.IntVar(&a.flags.concurrency, "concurrency", 0, "lookups in flight during bulk checks")

	root.AddCommand(a.checkCmd(), a.bulkCmd(), a.splitCmd(), a.statusCmd())
	return root
}

// session is one command's engine plus what must be released with it.
type session struct {
	engine *goBreach.Engine
	logger *zap.Logger
	redis  *redis.Client
}

func (s *session) close() {
	s.engine.Close()
	if s.redis != nil {
		_ = s.redis.Close()
	}
	_ = s.logger.Sync()
}

// open resolves configuration from files and flags and builds an engine.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	dir := a.workDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	fc, err := config.Load(a.flags.configPath, dir)
	if err != nil {
		return nil, err
	}

	cfg := goBreach.DefaultConfig()
	if err := fc.Apply(&cfg); err != nil {
		return nil, err
	}
	a.applyFlags(cmd, &cfg)

	level := "warn"
	if fc.LogLevel != nil {
		level = *fc.LogLevel
	}
	if cmd.Flags().Changed("log-level") {
		level = a.flags.logLevel
	}
	logger, err := newLogger(level, a.stderr)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if opts := redisOptions(fc, a.flags.redisAddr); opts != nil {
		rdb = redis.NewClient(opts)
		if fc.Availability == nil || fc.Availability.Shared == nil {
			cfg.Availability.Shared = true
		}
	}

	builder := goBreach.New().WithConfig(cfg).WithLogger(logger)
	if a.httpClient != nil {
		builder = builder.WithHTTPClient(a.httpClient)
	}
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}

	engine, err := builder.Build()
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	return &session{engine: engine, logger: logger, redis: rdb}, nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *goBreach.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Client.Endpoint = a.flags.endpoint
	}
	if flags.Changed("user-agent") {
		cfg.Client.UserAgent = a.flags.userAgent
	}
	if flags.Changed("no-padding") {
		cfg.Client.Padding = !a.flags.noPadding
	}
	if flags.Changed("timeout") {
		cfg.Client.Timeout = a.flags.timeout
	}
	if flags.Changed("concurrency") {
		cfg.Bulk.Concurrency = a.flags.concurrency
	}
}

func redisOptions(fc config.FileConfig, addrFlag string) *redis.Options {
	var opts redis.Options
	if fc.Redis != nil {
		if fc.Redis.Addr != nil {
			opts.Addr = *fc.Redis.Addr
		}
		if fc.Redis.Password != nil {
			opts.Password = *fc.Redis.Password
		}
		if fc.Redis.DB != nil {
			opts.DB = *fc.Redis.DB
		}
	}
	if addrFlag != "" {
		opts.Addr = addrFlag
	}
	if opts.Addr == "" {
		return nil
	}
	return &opts
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	if lvl == zapcore.DebugLevel {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
	return zap.New(core).Named("pwncheck"), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
