package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

const (
	// SessionIDKey gin 上下文中保存会话 ID 的键
	SessionIDKey = "session_id"

	// DefaultCookieName 携带签名会话 ID 的 Cookie 名
	DefaultCookieName = "sessionid"

	sessionClaim = "sid"
)

// SessionCookie 将会话 ID 签名后写入 HttpOnly Cookie，并在请求时解析回来
type SessionCookie struct {
	name   string
	secret []byte
	maxAge int
	secure bool
}

// NewSessionCookie 创建 SessionCookie，secret 不能为空
func NewSessionCookie(secret string, ttl time.Duration, secure bool) *SessionCookie {
	if secret == "" {
		panic("session secret cannot be empty for SessionCookie")
	}
	return &SessionCookie{
		name:   DefaultCookieName,
		secret: []byte(secret),
		maxAge: int(ttl / time.Second),
		secure: secure,
	}
}

// Middleware 解析会话 Cookie 并写入 SessionIDKey
// Cookie 缺失或签名无效时不设置该键，由 Handler 决定是否创建会话
func (sc *SessionCookie) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 没有 Cookie，直接放行
		raw, err := c.Cookie(sc.name)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		// 2. 验证签名，被篡改或未签名的 Cookie 视为不存在
		sessionID, err := sc.parse(raw)
		if err != nil {
			logrus.WithError(err).Warn("Session middleware: Ignoring invalid session cookie")
			c.Next()
			return
		}
		// 3. 写入上下文供后续 Handler 使用
		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// Issue 将 sessionID 绑定到当前请求，并通过 Set-Cookie 下发
func (sc *SessionCookie) Issue(c *gin.Context, sessionID string) error {
	token, err := sc.sign(sessionID)
	if err != nil {
		return err
	}
	// 同一请求内后续读取也能拿到新会话 ID
	c.Set(SessionIDKey, sessionID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.name, token, sc.maxAge, "/", "", sc.secure, true)
	return nil
}

// SessionID 返回当前请求解析出的会话 ID，没有时返回空字符串
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// sign 使用 HS256 将会话 ID 签名为 token
func (sc *SessionCookie) sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("cannot sign empty session id")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		sessionClaim: sessionID,
		"iat":        time.Now().Unix(),
	})
	signed, err := token.SignedString(sc.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// parse 验证 token 签名并取出会话 ID
func (sc *SessionCookie) parse(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		// 只接受 HMAC 签名，拒绝 alg=none 等其他算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sc.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("session cookie validation failed: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid session cookie claims")
	}
	sessionID, ok := claims[sessionClaim].(string)
	if !ok || sessionID == "" {
		return "", errors.New("session cookie has no session id")
	}
	return sessionID, nil
}
