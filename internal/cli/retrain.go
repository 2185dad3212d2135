package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Rebuild the router from seed data and the correction log",
		Run:   runRetrain,
	}
	RootCmd.AddCommand(cmd)
}

func runRetrain(cmd *cobra.Command, args []string) {
	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Init(cmd.Context()); err != nil {
		exitErr("init", err)
	}
	if err := svc.Retrain(cmd.Context()); err != nil {
		exitErr("retrain", err)
	}
	fmt.Println(`{"retrained": true}`)
}
