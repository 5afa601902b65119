package main

import (
	"github.com/Farmanaslam/Infofix-New-App/internal/config"
	"github.com/Farmanaslam/Infofix-New-App/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	// 读取配置文件（默认 ./config.yml）
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()

	if err := server.Run(cfg); err != nil {
		logrus.Fatalf("Server failed: %v", err)
	}
}
