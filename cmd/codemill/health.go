package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixforge/codemill/internal/engineerr"
)

var healthAddr string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check a running engine's /healthz endpoint",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "localhost:7420", "engine address to probe")
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", healthAddr))
	if err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "health check request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return engineerr.New(engineerr.Internal, "engine at %s reported status %d", healthAddr, resp.StatusCode)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
