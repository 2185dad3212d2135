package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear [layer]",
		Short: "Remove every entry in a layer",
		Args:  cobra.ExactArgs(1),
		Run:   runClear,
	}
	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	layer, err := parseLayer(args[0])
	if err != nil {
		exitErr("clear", err)
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Clear(cmd.Context(), layer); err != nil {
		exitErr("clear", err)
	}
	fmt.Printf("{\"cleared\": %q}\n", layer)
}
