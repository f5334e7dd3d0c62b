// @title LMS 学习进度服务 API
// @version 1.0
// @description 课程学习进度记录、课时完成判定与测验评分服务。

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"

	"lms_backend/internal/app"
	"lms_backend/internal/config"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	importFile := flag.String("import", "", "导入课程定义文件(YAML/JSON)后退出")
	rebuild := flag.String("rebuild", "", "重建指定选课的进度后退出，all 表示全部未退课选课")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	application.ConfigDir = *configDir
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		logger.Log.Info("数据库迁移完成，退出程序")
		application.Close()
		return
	}

	if *importFile != "" || *rebuild != "" {
		ctx := context.Background()
		defer application.Close()
		if *importFile != "" {
			if err := application.ImportCourse(ctx, *importFile); err != nil {
				logger.Log.Fatal("Course import failed", zap.String("file", *importFile), zap.Error(err))
			}
		}
		if *rebuild != "" {
			if err := application.Rebuild(ctx, *rebuild); err != nil {
				logger.Log.Fatal("Rebuild failed", zap.String("target", *rebuild), zap.Error(err))
			}
		}
		return
	}

	application.Run()
}
