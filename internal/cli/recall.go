package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layermem/layermem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Retrieve relevant memories",
		Long:  "Query all three layers: identity by exact match, experience and knowledge by semantic search.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}

	cmd.Flags().StringP("context", "c", "", "Filter experience results by context")
	cmd.Flags().IntP("top", "k", model.DefaultTopK, "Max results")
	cmd.Flags().Float64P("threshold", "t", model.DefaultSemanticThreshold, "Semantic score threshold")
	cmd.Flags().Bool("no-identity", false, "Skip the identity layer")
	cmd.Flags().Bool("no-experience", false, "Skip the experience layer")
	cmd.Flags().Bool("no-knowledge", false, "Skip the knowledge layer")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	contextFlag, _ := cmd.Flags().GetString("context")
	topK, _ := cmd.Flags().GetInt("top")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	noIdentity, _ := cmd.Flags().GetBool("no-identity")
	noExperience, _ := cmd.Flags().GetBool("no-experience")
	noKnowledge, _ := cmd.Flags().GetBool("no-knowledge")
	query := strings.Join(args, " ")

	svc, closeAll, err := openService()
	if err != nil {
		exitErr("open store", err)
	}
	defer closeAll()

	if err := svc.Init(cmd.Context()); err != nil {
		exitErr("init", err)
	}

	opts := model.RetrieveOptions{
		ContextFilter:     model.Context(contextFlag),
		TopK:              topK,
		SemanticThreshold: threshold,
	}
	if noIdentity {
		f := false
		opts.IncludeIdentity = &f
	}
	if noExperience {
		f := false
		opts.IncludeExperience = &f
	}
	if noKnowledge {
		f := false
		opts.IncludeKnowledge = &f
	}

	results, err := svc.Retrieve(cmd.Context(), query, opts)
	if err != nil {
		exitErr("recall", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
