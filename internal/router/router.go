package router

import (
	"net/http"

	"github.com/khadkaarun/Restaurant-Website/internal/auth"
	"github.com/khadkaarun/Restaurant-Website/internal/gallery"
	"github.com/khadkaarun/Restaurant-Website/internal/menu"
	"github.com/khadkaarun/Restaurant-Website/internal/middleware"
	"github.com/khadkaarun/Restaurant-Website/internal/order"
	"github.com/khadkaarun/Restaurant-Website/internal/push"
	"github.com/khadkaarun/Restaurant-Website/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *auth.Handler
	Menu     *menu.Handler
	Order    *order.Handler
	Workflow *workflow.Handler
	Gallery  *gallery.Handler
	Push     *push.Handler
}

func NewRouter(h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public
	r.GET("/menu", h.Menu.GetMenu)
	r.GET("/gallery", h.Gallery.List)

	r.POST("/auth/register", h.Auth.Register)
	r.POST("/auth/login", h.Auth.Login)
	r.GET("/auth/exists", h.Auth.CheckUserExists)

	r.POST("/checkout", middleware.OptionalAuth(), h.Order.Checkout)
	r.POST("/orders/verify", h.Order.VerifyCheckout)
	r.POST("/orders/verify-additional", h.Order.VerifyAdditionalCharge)

	r.POST("/push/subscribe", h.Push.Subscribe)

	// Logged-in customers
	authed := r.Group("/", middleware.AuthMiddleware())
	authed.GET("/orders/me", h.Order.MyOrders)
	authed.DELETE("/auth/account", h.Auth.DeleteAccount)

	// Staff dashboard
	admin := r.Group("/admin", middleware.AuthMiddleware(), middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin))

	admin.GET("/orders", h.Order.ListOrders)
	admin.GET("/orders/:id", h.Order.GetOrder)
	admin.PATCH("/orders/:id/status", h.Order.UpdateStatus)
	admin.POST("/orders/:id/cancel", h.Order.CancelOrder)
	admin.POST("/orders/:id/items/:itemID/cancel", h.Order.CancelItem)
	admin.POST("/orders/:id/items/:itemID/swap", h.Order.SwapItem)
	admin.POST("/orders/:id/items/:itemID/swap-variant", h.Order.SwapVariant)

	admin.POST("/replacements", h.Workflow.Start)
	admin.POST("/replacements/:id/advance", h.Workflow.Advance)

	admin.POST("/menu/categories", h.Menu.CreateCategory)
	admin.POST("/menu/items", h.Menu.CreateItem)
	admin.PUT("/menu/items/:id", h.Menu.UpdateItem)
	admin.DELETE("/menu/items/:id", h.Menu.DeleteItem)
	admin.POST("/menu/items/:id/variants", h.Menu.CreateVariant)
	admin.DELETE("/menu/items/:id/variants/:variantID", h.Menu.DeleteVariant)
	admin.POST("/menu/items/:id/image", h.Menu.UploadImage)
	admin.PATCH("/menu/items/:id/stock", h.Menu.UpdateStock)

	admin.POST("/gallery", h.Gallery.Upload)
	admin.DELETE("/gallery/:id", h.Gallery.Delete)

	return r
}
