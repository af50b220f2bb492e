package main

import (
	"log"

	"github.com/mobvis/od-backend/internal/api"
	"github.com/mobvis/od-backend/internal/config"
	"github.com/mobvis/od-backend/internal/database"
	"github.com/mobvis/od-backend/internal/engine"
	"github.com/mobvis/od-backend/internal/handler"
	"github.com/mobvis/od-backend/internal/repository"
	"github.com/mobvis/od-backend/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化数据库
	dbConfig := database.Config{
		Path: cfg.DBPath,
	}
	if err := database.Init(dbConfig); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()
	db := database.GetDB()

	// 加载网格参考集
	gridRepo := repository.NewGridRepository(db)
	index, err := service.LoadGridIndex(gridRepo, cfg.MetaCSV)
	if err != nil {
		log.Fatal("Failed to load grid reference set:", err)
	}
	log.Printf("Grid reference set loaded: %d cells", index.Len())

	// 初始化查询引擎
	eng, err := engine.New(engine.Config{
		Years:      cfg.Years,
		DataDir:    cfg.DataDir,
		AppDataDir: cfg.AppDataDir,
	}, index)
	if err != nil {
		log.Fatal("Failed to initialize query engine:", err)
	}
	defer eng.Close()

	labelRepo := repository.NewLabelRepository(db)
	queueRepo := repository.NewQueueRepository(db)

	metaService := service.NewMetaService(index)
	labelService := service.NewLabelService(labelRepo, index)
	queueService := service.NewQueueService(queueRepo, labelRepo, index, eng)
	queryService := service.NewQueryService(eng)
	buildService := service.NewBuildService(eng)

	handlers := api.Handlers{
		Build:   handler.NewBuildHandler(buildService),
		Flow:    handler.NewFlowHandler(queryService),
		Hourly:  handler.NewHourlyHandler(queryService),
		Heatmap: handler.NewHeatmapHandler(queryService),
		Meta:    handler.NewMetaHandler(metaService),
		Label:   handler.NewLabelHandler(labelService),
		Queue:   handler.NewQueueHandler(queueService, queryService),
	}

	// 初始化路由
	router := api.SetupRouter(cfg, handlers)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
