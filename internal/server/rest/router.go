package rest

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	AllowedOrigins []string
	// MediaURL and MediaRoot serve locally stored images. Empty MediaRoot
	// disables the route.
	MediaURL       string
	MediaRoot      string
	MaxUploadBytes int64
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// jsonFieldName reports validation errors under their JSON names.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	r.Use(
		metricsMiddleware(),
		requestIDMiddleware(),
		h.recoveryMiddleware(),
		h.loggingMiddleware(),
	)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", h.health)
	r.GET("/readyz", h.readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.MediaRoot != "" {
		r.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/", h.createUser)
			users.POST("/token/", h.createToken)
			users.POST("/token/refresh/", h.refreshToken)

			me := users.Group("/me", h.authMiddleware())
			me.GET("/", h.getMe)
			me.PATCH("/", h.updateMe(false))
			me.PUT("/", h.updateMe(true))
			me.DELETE("/", h.deleteMe)
		}

		recipes := api.Group("/recipes", h.authMiddleware())
		{
			recipes.GET("/", h.listRecipes)
			recipes.POST("/", h.createRecipe)
			recipes.GET("/:id/", h.getRecipe)
			recipes.PATCH("/:id/", h.updateRecipe(false))
			recipes.PUT("/:id/", h.updateRecipe(true))
			recipes.DELETE("/:id/", h.deleteRecipe)
			recipes.POST("/:id/upload-image/", h.uploadImage)
		}

		h.labelRoutes(api.Group("/tags", h.authMiddleware()), h.tags)
		h.labelRoutes(api.Group("/ingredients", h.authMiddleware()), h.ingredients)
	}

	return r
}

func (h *Handler) labelRoutes(g *gin.RouterGroup, svc LabelService) {
	g.GET("/", h.listLabels(svc))
	g.POST("/", h.createLabel(svc))
	g.GET("/:id/", h.getLabel(svc))
	g.PATCH("/:id/", h.updateLabel(svc, false))
	g.PUT("/:id/", h.updateLabel(svc, true))
	g.DELETE("/:id/", h.deleteLabel(svc))
}
