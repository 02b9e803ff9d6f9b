package bootstrap

import (
	"database/sql"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/playforge-dev/playforge-backend/internal/api/http"
	"github.com/playforge-dev/playforge-backend/internal/api/http/middleware"
	authmw "github.com/playforge-dev/playforge-backend/internal/auth/middleware"
	projhttp "github.com/playforge-dev/playforge-backend/internal/projects/http"
	"github.com/playforge-dev/playforge-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	LocalDB     *sql.DB
	RemoteDB    *sql.DB
	AuthClient  *fbauth.Client
	Persistence *service.PersistenceService
	AutoSaver   *service.AutoSaver
	AutoSave    projhttp.AutoSaveDefaults
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.LocalDB, dep.RemoteDB)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())
	api.Use(authmw.OptionalFirebaseAuth(dep.AuthClient))

	projectsGroup := api.Group("/projects")
	projhttp.New(dep.Persistence, dep.AutoSaver, dep.AutoSave).Register(projectsGroup)

	return r
}
