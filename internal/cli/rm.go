package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [layer] [id]",
		Short: "Delete one entry from a layer",
		Args:  cobra.ExactArgs(2),
		Run:   runRm,
	}
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	layer, err := parseLayer(args[0])
	if err != nil {
		exitErr("rm", err)
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Delete(cmd.Context(), layer, args[1]); err != nil {
		exitErr("rm", err)
	}
	fmt.Printf("{\"deleted\": %q}\n", args[1])
}
