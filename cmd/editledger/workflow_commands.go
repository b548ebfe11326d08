package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/editledger/editledger/internal/ui"
	"github.com/editledger/editledger/internal/workflow"
)

func stepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage workflow steps",
		Long: `Steps group change-sets into units of a multi-step task. Each step
depends on the previous one unless explicit dependencies are given; reverting
a step cascades to everything that depends on it.`,
	}
	cmd.AddCommand(
		stepStartCmd(),
		stepAddCmd(),
		stepBeginCmd(),
		stepDoneCmd(),
		stepFailCmd(),
		stepListCmd(),
		stepResultCmd(),
		stepCompleteCmd(),
	)
	return cmd
}

func stepStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new workflow for the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			wf := a.graph.StartWorkflow(a.cfg.SessionID)
			if err := a.save(); err != nil {
				return err
			}
			fmt.Printf("Started workflow %s\n", wf.ID)
			return nil
		},
	}
}

func stepAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a step to the current workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			deps, _ := cmd.Flags().GetStringSlice("after")
			step, err := a.graph.AddStep(args[0], deps...)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Printf("Added step %d (%s): %s\n", step.StepNumber, step.ID, step.Description)
			return nil
		},
	}
	cmd.Flags().StringSlice("after", nil, "Step id(s) this step depends on (default: the previous step)")
	return cmd
}

func stepBeginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "begin <step-id>",
		Short: "Mark a step as in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.graph.StartStep(args[0]); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Printf("Step %s in progress.\n", args[0])
			return nil
		},
	}
}

func stepDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <step-id>",
		Short: "Mark a step as applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.graph.MarkStepApplied(args[0]); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Printf("Step %s applied.\n", args[0])
			return nil
		},
	}
}

func stepFailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fail <step-id>",
		Short: "Mark a step as failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.graph.MarkStepFailed(args[0]); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Printf("Step %s failed.\n", args[0])
			return nil
		},
	}
}

func stepListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the current workflow's steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			wf := a.graph.Current()
			if wf == nil {
				fmt.Println("No active workflow.")
				return nil
			}

			fmt.Printf("Workflow %s [%s]\n", wf.ID, wf.Status)
			for i, step := range wf.Steps {
				marker := " "
				if i == wf.CurrentStepIndex {
					marker = "*"
				}
				fmt.Printf("%s %d. [%s] %s (%s)\n", marker, step.StepNumber, step.Status, step.Description, step.ID)
				if len(step.DependsOn) > 0 {
					fmt.Printf("     depends on: %s\n", joinIDs(step.DependsOn))
				}
				if len(step.ChangeSetIDs) > 0 {
					fmt.Printf("     change sets: %s\n", joinIDs(step.ChangeSetIDs))
				}
			}
			return nil
		},
	}
}

func stepResultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result <command>",
		Short: "Record a command execution result against the active step",
		Long: `Stores the outcome of an externally executed command verbatim on the
active step. The engine never runs commands itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			exitCode, _ := cmd.Flags().GetInt("exit-code")
			stdout, _ := cmd.Flags().GetString("stdout")
			stderr, _ := cmd.Flags().GetString("stderr")
			durationMs, _ := cmd.Flags().GetInt64("duration-ms")

			res := workflow.CommandResult{
				Command:    args[0],
				ExitCode:   exitCode,
				Stdout:     stdout,
				Stderr:     stderr,
				DurationMs: durationMs,
				Success:    exitCode == 0,
			}
			if err := a.graph.AttachCommandResult(res); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Println("Command result recorded.")
			return nil
		},
	}
	cmd.Flags().Int("exit-code", 0, "Exit code of the command")
	cmd.Flags().String("stdout", "", "Captured standard output")
	cmd.Flags().String("stderr", "", "Captured standard error")
	cmd.Flags().Int64("duration-ms", 0, "Command duration in milliseconds")
	return cmd
}

func stepCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Mark the current workflow as completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.graph.CompleteWorkflow(); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Println("Workflow completed.")
			return nil
		},
	}
}

func revertStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert-step [step-id]",
		Short: "Revert a step and everything that depends on it",
		Long: `Revert-step computes the dependent closure of the given step and
reverts every applied step in it, newest first, restoring the files touched by
each step's change-sets. With --to-step N every step after step N is reverted
instead. --dry-run previews the cascade without touching anything.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			toStep, _ := cmd.Flags().GetInt("to-step")

			if (len(args) == 1) == (toStep >= 0) {
				return fmt.Errorf("specify exactly one of: a step id, or --to-step")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if toStep >= 0 {
				outcome, err := a.graph.RevertToStep(cmd.Context(), toStep)
				if err != nil {
					return err
				}
				if err := a.save(); err != nil {
					return err
				}
				reportOutcome(outcome)
				return nil
			}

			stepID := args[0]

			// Preview the cascade before doing anything.
			preview, err := a.graph.RevertStep(cmd.Context(), stepID, true)
			if err != nil {
				return err
			}
			if len(preview.RevertedSteps) == 0 {
				fmt.Println("Nothing to revert.")
				return nil
			}

			if dryRun {
				reportOutcome(preview)
				return nil
			}

			if a.cfg.ConfirmDestructive && !a.skipConfirm {
				detail := fmt.Sprintf("Reverting %d step(s): %s\nThis restores the files those steps changed.",
					len(preview.RevertedSteps), joinIDs(preview.RevertedSteps))
				ok, err := ui.Confirm("Revert step and its dependents?", detail)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			outcome, err := a.graph.RevertStep(cmd.Context(), stepID, false)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			reportOutcome(outcome)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Preview the cascade without reverting")
	cmd.Flags().Int("to-step", -1, "Revert every step after this step number")
	return cmd
}

func reportOutcome(out *workflow.RevertOutcome) {
	verb := "Reverted"
	if out.DryRun {
		verb = "Would revert"
	}
	fmt.Printf("%s %d step(s): %s\n", verb, len(out.RevertedSteps), joinIDs(out.RevertedSteps))
	fmt.Printf("%s %d change set(s): %s\n", verb, len(out.RevertedChangeSets), joinIDs(out.RevertedChangeSets))
	if len(out.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%d file(s) could not be restored:\n", len(out.Errors))
		for _, e := range out.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Path, e.Message)
		}
	}
}
