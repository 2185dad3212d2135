package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/layermem/layermem/internal/model"
	"github.com/layermem/layermem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "resolve [key] [new-value]",
		Short: "Resolve an identity conflict",
		Long:  "Apply a verdict on a conflicting identity fact: keep_existing, update_new, or ask_later.",
		Args:  cobra.ExactArgs(2),
		Run:   runResolve,
	}

	cmd.Flags().StringP("action", "a", "", "Action: keep_existing, update_new, ask_later (required)")
	cmd.MarkFlagRequired("action")

	RootCmd.AddCommand(cmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	actionFlag, _ := cmd.Flags().GetString("action")
	key, newValue := args[0], args[1]

	action := model.ConflictAction(actionFlag)
	if !model.ValidConflictActions[action] {
		exitErr("resolve", fmt.Errorf("unknown action %q (valid: keep_existing, update_new, ask_later)", actionFlag))
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	// Rebuild the conflict from the stored fact; the CLI has no session to
	// carry the original WriteResult across invocations.
	fact, err := svc.FactByKey(cmd.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			exitErr("resolve", fmt.Errorf("no stored fact for key %q", key))
		}
		exitErr("resolve", err)
	}

	conflict := model.Conflict{
		Key:                key,
		ExistingID:         fact.ID,
		ExistingValue:      fact.Value,
		NewValue:           newValue,
		ExistingConfidence: fact.Confidence,
	}
	if err := svc.ResolveConflict(cmd.Context(), conflict, action); err != nil {
		exitErr("resolve", err)
	}

	fmt.Printf("{\"resolved\": %q, \"action\": %q}\n", key, action)
}
