package main

import (
	"log"
	"os"

	"parkingcore/config"
	"parkingcore/database"
	"parkingcore/handlers"
	"parkingcore/models"
	"parkingcore/notify"
	"parkingcore/routes"
	"parkingcore/services"
	"parkingcore/store/gormstore"
	"parkingcore/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	cfg := config.Load()

	// 初始化 JWTSecret
	utils.InitJWTSecret()

	// 初始化資料庫
	db := database.InitDB(cfg.DSN())

	// 執行資料庫遷移
	db.AutoMigrate(
		&models.Facility{},
		&models.Slot{},
		&models.Ticket{},
		&models.PricingRule{},
	)
	log.Println("Database migration completed")

	// 組裝核心元件，狀態推送在交易提交後廣播
	st := gormstore.New(db)
	hub := notify.NewHub()
	allocator := services.NewSlotAllocator(st, hub, cfg.HoldDuration)
	booking := services.NewBookingService(st, hub)
	checkout := services.NewCheckoutService(st, hub)
	slotQuery := services.NewSlotQueryService(st)
	reaper := services.NewReservationReaper(st)

	bookingHandler := handlers.NewBookingHandler(allocator, booking, checkout)
	slotHandler := handlers.NewSlotHandler(slotQuery, hub)

	// 設置 Gin 模式為 release
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api, bookingHandler, slotHandler)
	}

	// 啟動定時任務
	c := cron.New()

	// 回收逾期保留（預設每分鐘執行一次）
	_, err := c.AddFunc(cfg.ReaperSpec, func() {
		if _, err := reaper.Sweep(); err != nil {
			log.Printf("Failed to reclaim expired reservations: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule reservation reaper cron job: %v", err)
	}

	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	log.Printf("Starting server on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
