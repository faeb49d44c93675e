// Command synthub-cli is the operator CLI for a synthub node: vault
// registration and admin tuning, the deposit/advance/redeem/withdraw
// user flows, synthetic creation, and role-based access control.
package main

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"synthub/core/chain"
	"synthub/core/hub"
	"synthub/core/mint"
	"synthub/core/store"
	pkgconfig "synthub/pkg/config"
)

var (
	initOnce     sync.Once
	memStore     *store.Memory
	accessCtrl   *chain.AccessController
	mintRegistry *mint.Registry
	engine       *hub.Engine
	log          = logrus.New()
)

// initState builds the in-process node state the CLI operates
// against. A real deployment points this at a durable chain.StateRW
// instead of the in-memory store; nothing else in this package
// depends on that happening here.
func initState(cmd *cobra.Command, _ []string) error {
	var err error
	initOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load("../.env")

		if _, loadErr := pkgconfig.LoadFromEnv(); loadErr != nil {
			log.WithError(loadErr).Warn("no config file found, using defaults")
		}
		log.SetLevel(logLevelFromString(pkgconfig.AppConfig.Logging.Level))

		memStore = store.New()
		accessCtrl = chain.NewAccessController(memStore)
		mintRegistry = mint.New(memStore)
		engine = hub.New(memStore, mintRegistry, log)
	})
	return err
}

func logLevelFromString(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func decodeAddr(s string) (chain.Address, error) {
	return chain.AddressFromHex(s)
}

func main() {
	root := &cobra.Command{
		Use:               "synthub-cli",
		Short:             "Operate a synthub issuance hub",
		PersistentPreRunE: initState,
	}
	root.AddCommand(accessCmd, mintCmd, vaultCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
