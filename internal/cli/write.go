package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layermem/layermem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "write [text]",
		Short: "Route and store an utterance",
		Long:  "Route text into a memory layer and store it. Text can be a positional arg or piped via stdin.",
		Run:   runWrite,
	}

	cmd.Flags().StringP("role", "r", "user", "Speaker role: user or assistant")
	cmd.Flags().StringP("context", "c", "general", "Context hint: general, family, work, college, personal, health, hobby")
	cmd.Flags().StringP("layer", "l", "", "Force a layer instead of routing: identity, experience, knowledge")
	cmd.Flags().StringSlice("recent", nil, "Recent conversation lines for routing context (repeatable)")

	RootCmd.AddCommand(cmd)
}

func runWrite(cmd *cobra.Command, args []string) {
	role, _ := cmd.Flags().GetString("role")
	contextFlag, _ := cmd.Flags().GetString("context")
	layerFlag, _ := cmd.Flags().GetString("layer")
	recent, _ := cmd.Flags().GetStringSlice("recent")

	// Text comes from the positional arg or stdin.
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("write", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	req := model.WriteRequest{
		Content:       strings.TrimSpace(content),
		Role:          role,
		Context:       model.Context(contextFlag),
		RecentContext: recent,
	}
	if layerFlag != "" {
		layer, err := parseLayer(layerFlag)
		if err != nil {
			exitErr("write", err)
		}
		req.ForceLayer = layer
	}

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Init(cmd.Context()); err != nil {
		exitErr("init", err)
	}

	res, err := svc.Write(cmd.Context(), req)
	if err != nil {
		exitErr("write", err)
	}

	b, _ := json.Marshal(res)
	fmt.Println(string(b))
}
