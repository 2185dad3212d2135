// Package cli implements the layermem CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/layermem/layermem/internal/embedding"
	"github.com/layermem/layermem/internal/memory"
	"github.com/layermem/layermem/internal/model"
	"github.com/layermem/layermem/internal/router"
	"github.com/layermem/layermem/internal/store"
)

var (
	dbPath      string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "layermem",
	Short: "Layered associative memory for conversational agents",
	Long: "Routes utterances into identity, experience and knowledge stores,\n" +
		"retrieves them by relevance, and learns from corrections. SQLite-backed.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $LAYERMEM_DB or ~/.layermem/memory.db)")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log to stderr")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("LAYERMEM_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".layermem", "memory.db")
}

func newLogger() *zap.Logger {
	if !verboseFlag {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openService builds the full pipeline: store, embedding provider, router
// and service. The returned close func flushes and closes everything.
func openService() (*memory.Service, func(), error) {
	log := newLogger()
	path := getDBPath()

	st, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}

	emb := embedding.NewProvider(embedding.NewFromEnv(), log)
	rt := router.New(st, emb, router.Options{Logger: log})
	svc := memory.NewService(st, rt, emb, path, log)

	closeAll := func() {
		st.Close()
		log.Sync()
	}
	return svc, closeAll, nil
}

func parseLayer(arg string) (model.Layer, error) {
	l := model.Layer(arg)
	if !model.ValidLayers[l] {
		return "", fmt.Errorf("unknown layer %q (valid: identity, experience, knowledge)", arg)
	}
	return l, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
