package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	st, err := svc.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}

	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
