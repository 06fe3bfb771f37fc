package utils

import (
	"log"
	"os"
)

// JWTSecret 驗證請求 token 用的秘鑰
var JWTSecret []byte

// InitJWTSecret 從環境變數載入 JWT 秘鑰
func InitJWTSecret() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "insecure-default-jwt-secret"
		log.Println("JWT_SECRET not set, using insecure default (development only)")
	}
	JWTSecret = []byte(secret)
}
