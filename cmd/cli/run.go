package cli

import (
	"github.com/Farmanaslam/Infofix-New-App/internal/config"
	"github.com/Farmanaslam/Infofix-New-App/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the INFOFIX SERVICES server",
	Long:  `Run the INFOFIX SERVICES HTTP server until interrupted.`,
	Run:   runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	if err := server.Run(cfg); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}
