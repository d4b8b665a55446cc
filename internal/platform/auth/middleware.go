package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserSubKey   = "user_sub"
	CtxUserEmailKey = "user_email"
	CtxUserNameKey  = "user_name"
)

type Options struct {
	Secret []byte
	// false のときは署名検証を上流（IdP / エッジ）に任せ、exp とメールドメインだけ見る
	VerifySignature bool
	AllowedDomains  []string
}

// Identity is the admin principal extracted from a bearer token.
type Identity struct {
	Sub   string
	Email string
	Name  string
}

// RequireAdmin: Authorization: Bearer <token> を検証し、許可ドメインのメールを持つ場合のみ通す
func RequireAdmin(opts Options) gin.HandlerFunc {
	domains := make(map[string]struct{}, len(opts.AllowedDomains))
	for _, d := range opts.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains[d] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abort(c, "missing Authorization header")
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, "invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			abort(c, "empty token")
			return
		}

		id, err := ParseIdentity(tokenStr, opts)
		if err != nil {
			abort(c, err.Error())
			return
		}

		domain := ""
		if at := strings.LastIndex(id.Email, "@"); at >= 0 {
			domain = strings.ToLower(id.Email[at+1:])
		}
		if _, ok := domains[domain]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody("email domain not allowed"))
			return
		}

		c.Set(CtxUserSubKey, id.Sub)
		c.Set(CtxUserEmailKey, id.Email)
		c.Set(CtxUserNameKey, id.Name)
		c.Next()
	}
}

type claims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// ParseIdentity validates tokenStr according to opts and returns its principal.
func ParseIdentity(tokenStr string, opts Options) (Identity, error) {
	var cl claims
	if opts.VerifySignature {
		token, err := jwt.ParseWithClaims(tokenStr, &cl, func(t *jwt.Token) (any, error) {
			return opts.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || token == nil || !token.Valid {
			return Identity{}, errInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &cl); err != nil {
			return Identity{}, errInvalidToken
		}
		// 未検証モードでも期限切れは弾く
		if err := jwt.NewValidator(jwt.WithLeeway(0)).Validate(cl); err != nil {
			return Identity{}, errTokenExpired
		}
	}

	if cl.Email == "" {
		return Identity{}, errNoEmail
	}
	name := cl.UserMetadata.FullName
	if name == "" {
		name = strings.SplitN(cl.Email, "@", 2)[0]
	}
	return Identity{Sub: cl.Subject, Email: cl.Email, Name: name}, nil
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errInvalidToken authError = "invalid token"
	errTokenExpired authError = "token expired"
	errNoEmail      authError = "no email in token"
)

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(msg))
}

func errorBody(msg string) gin.H {
	return gin.H{"error": gin.H{"code": "UNAUTHENTICATED", "message": msg}}
}
