package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config 服務的執行參數，全部來自環境變數
type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	HoldDuration time.Duration // 保留未確認的持有時間
	ReaperSpec   string        // 背景清掃的 cron 排程
}

// Load 讀取環境變數，未設定時使用預設值
func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "3306"))

	holdMinutes, err := strconv.Atoi(getEnv("HOLD_DURATION_MINUTES", "5"))
	if err != nil || holdMinutes <= 0 {
		log.Printf("Invalid HOLD_DURATION_MINUTES, falling back to 5")
		holdMinutes = 5
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking_user"),
		DBPassword: getEnv("DB_PASSWORD", "parking1234"),
		DBName:     getEnv("DB_NAME", "parking_db"),

		HoldDuration: time.Duration(holdMinutes) * time.Minute,
		ReaperSpec:   getEnv("REAPER_CRON", "* * * * *"), // 預設每分鐘
	}
}

// DSN 組出 MySQL 連線字串
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
