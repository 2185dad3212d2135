package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "teach [text]",
		Short: "Correct the router for an utterance",
		Long:  "Tell the router which layer an utterance belongs to. Applies one online update and logs the correction for retraining.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTeach,
	}

	cmd.Flags().StringP("layer", "l", "", "Correct layer: identity, experience, knowledge (required)")
	cmd.Flags().StringSlice("recent", nil, "Recent conversation lines (repeatable)")
	cmd.MarkFlagRequired("layer")

	RootCmd.AddCommand(cmd)
}

func runTeach(cmd *cobra.Command, args []string) {
	layerFlag, _ := cmd.Flags().GetString("layer")
	recent, _ := cmd.Flags().GetStringSlice("recent")
	text := strings.Join(args, " ")

	layer, err := parseLayer(layerFlag)
	if err != nil {
		exitErr("teach", err)
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Init(cmd.Context()); err != nil {
		exitErr("init", err)
	}
	if err := svc.Teach(cmd.Context(), text, recent, layer); err != nil {
		exitErr("teach", err)
	}

	fmt.Printf("{\"taught\": %q}\n", layer)
}
