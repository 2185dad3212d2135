package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Apply importance decay to the experience layer",
		Long:  "Recompute every experience entry's importance from its age. Idempotent; run from cron or the host agent.",
		Run:   runDecay,
	}
	RootCmd.AddCommand(cmd)
}

func runDecay(cmd *cobra.Command, args []string) {
	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	changed, err := svc.ApplyDecay(cmd.Context())
	if err != nil {
		exitErr("decay", err)
	}
	fmt.Printf("{\"updated\": %d}\n", changed)
}
