package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/editledger/editledger/internal/consolidate"
	"github.com/editledger/editledger/internal/history"
	"github.com/editledger/editledger/internal/transaction"
	"github.com/editledger/editledger/internal/ui"
)

// proposal is the JSON document accepted by `editledger apply`: a batch of
// proposed file changes plus optional accounting metadata.
type proposal struct {
	Changes []consolidate.FileChange `json:"changes"`
	GroupID string                   `json:"groupId,omitempty"`
	Meta    history.Meta             `json:"meta,omitempty"`
}

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [proposal.json]",
		Short: "Apply a batch of proposed edits as one atomic change-set",
		Long: `Apply reads a JSON proposal from the given file (or stdin when no
file is given), consolidates changes targeting the same file, validates every
operation against the current file contents, and applies the batch
all-or-nothing. On success the batch is recorded as one change-set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return fmt.Errorf("error reading proposal: %w", err)
			}

			var p proposal
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("error parsing proposal: %w", err)
			}
			if len(p.Changes) == 0 {
				return fmt.Errorf("proposal contains no changes")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cs, err := a.coord.Apply(cmd.Context(), p.Changes, p.GroupID, a.cfg.SessionID, p.Meta)
			if err != nil {
				return err
			}

			if cs.Description == "" {
				cs.Description = a.annot.Describe(cmd.Context(), cs)
			}

			// Attach the change-set to the active workflow step, if any.
			if err := a.graph.LinkChangeSet(cs.ID); err == nil {
				appLogger.Log("Linked change set %s to active step", cs.ID)
			}

			if err := a.save(); err != nil {
				return err
			}

			showDiff, _ := cmd.Flags().GetBool("diff")
			if showDiff {
				fmt.Print(ui.RenderChangeSet(cs))
			} else {
				fmt.Printf("Applied %s: %s\n", cs.ID, cs.Description)
			}
			return nil
		},
	}
	cmd.Flags().Bool("diff", false, "Print the full diff of the applied change-set")
	return cmd
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recent applied change-set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cs, res, err := a.coord.Undo(cmd.Context())
			if err != nil {
				return err
			}
			if cs == nil {
				fmt.Println("Nothing to undo.")
				return nil
			}

			if err := a.save(); err != nil {
				return err
			}
			reportResult(res)
			fmt.Printf("Undid %s: %s\n", cs.ID, cs.Description)
			return nil
		},
	}
}

func redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo [change-set-id]",
		Short: "Re-apply the next undone change-set, or everything up to the given one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 1 {
				res, err := a.coord.ReapplyFromChangeSet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.save(); err != nil {
					return err
				}
				reportResult(res)
				fmt.Printf("Re-applied %d change set(s).\n", len(res.ChangeSetsAffected))
				return nil
			}

			cs, res, err := a.coord.Redo(cmd.Context())
			if err != nil {
				return err
			}
			if cs == nil {
				fmt.Println("Nothing to redo.")
				return nil
			}

			if err := a.save(); err != nil {
				return err
			}
			reportResult(res)
			fmt.Printf("Redid %s: %s\n", cs.ID, cs.Description)
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "List the session's change-set history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			sets := a.hist.ChangeSets()
			if len(sets) == 0 {
				fmt.Println("No change sets recorded.")
				return nil
			}

			pos := a.hist.Position()
			for i, cs := range sets {
				marker := " "
				if i == pos {
					marker = "*"
				}
				state := "applied"
				if !cs.Applied {
					state = "reverted"
				}
				fmt.Printf("%s %s  %s  [%s]  %d file(s) +%d -%d ~%d  %s\n",
					marker, cs.ID, cs.Timestamp.Format("2006-01-02 15:04:05"), state,
					len(cs.Files), cs.TotalStats.Added, cs.TotalStats.Removed, cs.TotalStats.Modified,
					cs.Description)
			}
			if pos == history.OriginalPosition {
				fmt.Println("* (original state)")
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <change-set-id>",
		Short: "Show one change-set as a colored diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			cs := a.hist.FindByID(args[0])
			if cs == nil {
				return fmt.Errorf("change set not found: %s", args[0])
			}
			fmt.Print(ui.RenderChangeSet(cs))
			return nil
		},
	}
}

func revertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert [change-set-id]",
		Short: "Revert the workspace to a change-set, the original state, or undo one batch",
		Long: `Revert walks the history from the newest change-set down to the given
target, restoring each file's pre-edit content. With --original everything is
reverted; with --group the single batch recorded under that group id is
restored from its snapshot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, _ := cmd.Flags().GetBool("original")
			groupID, _ := cmd.Flags().GetString("group")

			targets := 0
			if original {
				targets++
			}
			if groupID != "" {
				targets++
			}
			if len(args) == 1 {
				targets++
			}
			if targets != 1 {
				return fmt.Errorf("specify exactly one of: a change-set id, --original, or --group")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.ConfirmDestructive && !a.skipConfirm {
				detail := "This restores files on disk to their earlier contents."
				ok, err := ui.Confirm("Revert workspace?", detail)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			var res *transaction.Result
			switch {
			case original:
				res, err = a.coord.RevertToOriginal(cmd.Context())
			case groupID != "":
				res, err = a.coord.RevertGroup(cmd.Context(), groupID)
			default:
				res, err = a.coord.RevertToChangeSet(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			if err := a.save(); err != nil {
				return err
			}
			reportResult(res)
			fmt.Printf("Reverted %d change set(s).\n", len(res.ChangeSetsAffected))
			return nil
		},
	}
	cmd.Flags().Bool("original", false, "Revert every applied change-set")
	cmd.Flags().String("group", "", "Restore the pre-transaction snapshot of one batch")
	return cmd
}

// reportResult prints per-file errors from a best-effort revert or reapply.
func reportResult(res *transaction.Result) {
	if res == nil || len(res.Errors) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "%d file(s) could not be restored:\n", len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Path, e.Message)
	}
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
