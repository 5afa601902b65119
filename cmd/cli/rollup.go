package cli

import (
	"context"
	"time"

	"github.com/Farmanaslam/Infofix-New-App/internal/config"
	"github.com/Farmanaslam/Infofix-New-App/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var rollupDays int

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Recompute daily statistics",
	Long: `Recompute the daily statistics rollup for the last N days.

The HTTP server keeps today's row fresh on its own; this command is for
backfilling after downtime or schema changes.`,
	Run: runRollup,
}

func init() {
	rollupCmd.Flags().IntVar(&rollupDays, "days", 1, "number of days to recompute, counting back from today")
	rootCmd.AddCommand(rollupCmd)
}

func runRollup(cmd *cobra.Command, args []string) {
	cfg := config.Load()

	if err := config.InitLogger(cfg); err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	statisticsService := services.NewStatisticsService(db, logrus.StandardLogger())

	now := time.Now()
	for i := 0; i < rollupDays; i++ {
		day := now.AddDate(0, 0, -i)
		if err := statisticsService.RollupDaily(context.Background(), day); err != nil {
			logrus.Fatalf("Rollup failed for %s: %v", day.Format("2006-01-02"), err)
		}
		logrus.Infof("Rolled up statistics for %s", day.Format("2006-01-02"))
	}
}
