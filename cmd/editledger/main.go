package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/editledger/editledger/internal/logging"
)

var (
	// Version is set during build
	Version = "dev"
	// GitCommit is set during build
	GitCommit = "none"
	// BuildDate is set during build
	BuildDate = "unknown"

	// Logger instance - global within main package for simplicity
	appLogger logging.Logger = logging.NewNilLogger()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "editledger",
	Short: "Transactional file-edit ledger with undo, redo and cascading revert",
	Long: `Editledger records batches of file edits as atomic change-sets,
keeps a linear version history per session, and groups change-sets into
workflow steps whose dependents can be reverted as a cascade.

Examples:
  editledger apply proposal.json
  editledger log
  editledger undo
  editledger revert-step step-3 --dry-run`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			if err := appLogger.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing logger: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("session", "s", "", "Session id for history and workflows (default: \"default\")")
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Root directory of the file tree being edited (default: current directory)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Skip confirmation prompts for destructive operations")

	// Logging flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to a file")
	rootCmd.PersistentFlags().String("log-file", "", "Path to the log file (default: ~/.cache/editledger/logs/editledger-<timestamp>.log)")

	// Bind standard Go flags to pflag
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(
		applyCmd(),
		undoCmd(),
		redoCmd(),
		logCmd(),
		showCmd(),
		revertCmd(),
		stepCmd(),
		revertStepCmd(),
		completionCmd(),
	)
}

// initLogger sets up the package-level logger from the --debug/--log-file
// flags. Without --debug all log calls go to a nil logger.
func initLogger(cmd *cobra.Command) error {
	debugFlag, _ := cmd.Flags().GetBool("debug")
	if !debugFlag {
		appLogger = logging.NewNilLogger()
		return nil
	}

	logPath, _ := cmd.Flags().GetString("log-file")
	if logPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not get user cache directory: %v. Logging to current dir.\n", err)
			cacheDir = "."
		}
		logDir := filepath.Join(cacheDir, "editledger", "logs")
		logFile := fmt.Sprintf("editledger-%s.log", time.Now().Format("20060102-150405"))
		logPath = filepath.Join(logDir, logFile)
	}

	fileLogger, err := logging.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("error creating file logger: %w", err)
	}
	appLogger = fileLogger

	createLatestLogSymlink(logPath)
	appLogger.Log("--- Editledger Session Start --- Version: %s, Commit: %s, Built: %s", Version, GitCommit, BuildDate)
	appLogger.Log("Debug logging enabled. Log file: %s", logPath)
	return nil
}

// createLatestLogSymlink attempts to create or update the latest.log symlink.
func createLatestLogSymlink(logPath string) {
	if runtime.GOOS == "windows" {
		// Symlinks are tricky on Windows, skip for now.
		return
	}
	logDir := filepath.Dir(logPath)
	linkPath := filepath.Join(logDir, "latest.log")

	_ = os.Remove(linkPath)
	if err := os.Symlink(filepath.Base(logPath), linkPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create latest.log symlink: %v\n", err)
	}
}

// completionCmd creates the completion command for shell completion scripts
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for editledger.
To load completions:

Bash:
  $ source <(editledger completion bash)

Zsh:
  $ source <(editledger completion zsh)

Fish:
  $ editledger completion fish | source
`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				cmd.Root().GenFishCompletion(os.Stdout, true)
			}
		},
	}

	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
