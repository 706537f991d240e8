package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const CtxSessionKey = "session"

// Session is the authenticated identity of a request.
type Session struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	MemberID  string `json:"member_id,omitempty"`
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(CtxSessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// RequireAuth validates "Authorization: Bearer <token>" and stores the Session in the context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing Authorization header")
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "empty token")
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || token == nil || !token.Valid {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid claims")
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing sub")
			return
		}
		role, _ := claims["role"].(string)
		mid, _ := claims["mid"].(string)

		c.Set(CtxSessionKey, Session{AccountID: sub, Role: role, MemberID: mid})
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok || s.Role == "" {
			abort(c, http.StatusForbidden, "FORBIDDEN", "missing role")
			return
		}
		if _, allowed := roleSet[s.Role]; !allowed {
			abort(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}
		c.Next()
	}
}

// RequireOwnerOrAdmin lets admins through, and members only when the path
// parameter names their own member id.
func RequireOwnerOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			abort(c, http.StatusForbidden, "FORBIDDEN", "missing session")
			return
		}
		if s.IsAdmin() || (s.MemberID != "" && s.MemberID == c.Param(param)) {
			c.Next()
			return
		}
		abort(c, http.StatusForbidden, "FORBIDDEN", "access denied")
	}
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody(code, msg))
}

func errorBody(code, msg string) gin.H {
	return gin.H{"error": gin.H{"code": code, "message": msg}}
}
