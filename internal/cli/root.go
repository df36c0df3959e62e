// Package cli implements the contactbook command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/internal/logging"
	"github.com/mesh-intelligence/contactbook/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	v         *viper.Viper
	log       *zap.Logger
}

// NewRootCmd creates the top-level "contactbook" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "contactbook",
		Short: "A small live-updating address book",
		Long: "Contactbook keeps a list of contacts in a JSONL file and shows it\n" +
			"sorted by first name, last name or phone number.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: "+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config directory", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError("load config", err)
	}
	if err := v.BindPFlag(cfgKeyLogLevel, cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return sysError("bind flags", err)
	}

	log, err := logging.New(v.GetString(cfgKeyLogLevel))
	if err != nil {
		return userError("%v", err)
	}

	a.configDir = configDir
	a.v = v
	a.log = log
	a.log.Debug("config loaded",
		zap.String("config_dir", configDir),
		zap.String("config_file", v.ConfigFileUsed()),
	)
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	_ = a.log.Sync()
	return nil
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError reports bad input: exit code 1.
func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysError reports an environment or storage failure: exit code 2.
func sysError(msg string, err error) error {
	return &exitError{code: exitSysError, err: fmt.Errorf("%s: %w", msg, err)}
}

// exitCode maps a command error to the process exit code. Errors cobra
// raises itself, such as unknown flags, count as user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// run executes root with args, printing any error to stderr, and returns
// the exit code.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

// Execute runs the CLI with the process arguments and returns the exit
// code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}
