// @title LangQuiz 后端 API
// @version 1.0
// @description 语言测验平台的后端服务器：账户、测试分类、出题与判分。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"langquiz_backend/internal/app"
	"langquiz_backend/internal/config"
	"langquiz_backend/internal/seed"
	"langquiz_backend/pkg/logger"
	"log"

	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	seedFile := flag.String("seed", "", "导入题库 YAML 文件")
	mode := flag.String("mode", app.ModeAll, "运行模式: all | api | worker")
	flag.Parse()

	switch *mode {
	case app.ModeAll, app.ModeAPI, app.ModeWorker:
	default:
		log.Fatalf("Unknown mode %q", *mode)
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg, configDir)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		application.Close()
		return
	}

	if *seedFile != "" {
		created, skipped, err := seed.ImportFile(context.Background(), application.Catalog(), *seedFile)
		if err != nil {
			logger.Log.Fatal("Failed to seed catalog", zap.String("file", *seedFile), zap.Error(err))
		}
		logger.Log.Info("题库导入完成", zap.Int("created", created), zap.Int("skipped", skipped))
	}

	application.Run(*mode)
}
