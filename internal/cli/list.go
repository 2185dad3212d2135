package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list [layer]",
		Short: "List entries in a layer",
		Args:  cobra.ExactArgs(1),
		Run:   runList,
	}
	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	layer, err := parseLayer(args[0])
	if err != nil {
		exitErr("list", err)
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	entries, err := svc.List(cmd.Context(), layer)
	if err != nil {
		exitErr("list", err)
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
