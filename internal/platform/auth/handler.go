package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MeResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RegisterRoutes: RequireAdmin 済みのグループに載せる
func RegisterRoutes(admin gin.IRoutes) {
	admin.GET("/me", Me)
}

// Me returns the principal RequireAdmin stored on the context.
func Me(c *gin.Context) {
	c.JSON(http.StatusOK, MeResponse{
		Sub:   c.GetString(CtxUserSubKey),
		Email: c.GetString(CtxUserEmailKey),
		Name:  c.GetString(CtxUserNameKey),
	})
}
