package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blues/cps/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims JWT负载
// 令牌由外部认证服务签发，sub/uid 对应 user 表的主键
type Claims struct {
	UserId int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity 已认证的请求身份
type Identity struct {
	UserId int64
	Role   model.Role
}

const identityKey = "auth.identity"

var errInvalidToken = errors.New("无效的访问令牌")

// ParseToken 校验并解析JWT
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.UserId == 0 || !model.Role(claims.Role).Valid() {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Middleware 认证中间件
// WebSocket握手无法携带自定义请求头，因此也接受query参数中的token
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "缺少访问令牌"})
			return
		}

		claims, err := ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
			return
		}

		c.Set(identityKey, Identity{UserId: claims.UserId, Role: model.Role(claims.Role)})
		c.Next()
	}
}

// CurrentIdentity 获取当前请求身份
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
