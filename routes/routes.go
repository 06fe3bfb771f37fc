package routes

import (
	"errors"
	"log"
	"net/http"

	"parkingcore/handlers"
	"parkingcore/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware 驗證 JWT token，並提取 customer_id。
// 授權決策由呼叫端負責，這裡只負責辨識請求者。
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}
		tokenString := authHeader[len(prefix):]

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			log.Printf("Invalid token claims or token is not valid")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		customerID, ok := claims["customer_id"].(float64)
		if !ok {
			log.Printf("Missing or invalid customer_id in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的顧客 ID",
				"error":   "Invalid customer_id in token",
				"code":    "ERR_INVALID_CUSTOMER_ID",
			})
			c.Abort()
			return
		}

		c.Set("customer_id", int(customerID))
		c.Next()
	}
}

// Path 註冊所有路由
func Path(router *gin.RouterGroup, booking *handlers.BookingHandler, slots *handlers.SlotHandler) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		// 停車場路由
		facilities := v1.Group("/facilities")
		{
			// 查詢車位清單與狀態推送不需要 token 驗證
			facilities.GET("/:id/slots", slots.ListSlots)
			facilities.GET("/:id/ws", slots.SubscribeSlotChanges)
		}

		// 預約與票券路由
		bookings := v1.Group("/bookings")
		bookings.Use(AuthMiddleware())
		{
			// 預約車位：取得時限保留
			bookings.POST("/reserve", booking.Reserve)
			// 確認入場：建立票券並佔用車位
			bookings.POST("/confirm", booking.Confirm)
			// 結帳出場：結算費用並釋放車位
			bookings.POST("/:id/checkout", booking.Checkout)
			// 延長停車時數
			bookings.POST("/:id/extend", booking.Extend)
		}
	}
}
