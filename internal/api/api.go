package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/robfig/cron/v3"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/blackai-app/backend/internal/api/middleware"
	"github.com/blackai-app/backend/internal/mail"
	"github.com/blackai-app/backend/internal/stores/session"
	"github.com/blackai-app/backend/internal/stores/user"
	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/blackai-app/backend/pkg/utils"

	auth_module "github.com/blackai-app/backend/internal/api/modules/auth"
	chat_module "github.com/blackai-app/backend/internal/api/modules/chat"
	health_module "github.com/blackai-app/backend/internal/api/modules/health"
	users_module "github.com/blackai-app/backend/internal/api/modules/users"
)

func Start(cfg *utils.Config) {
	// Initialized configuration settings
	port := cfg.GetWithDefault("API_PORT", "8080")

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(noRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Open the database once; every store shares the connection
	db := openDatabase(cfg)

	userStore, err := user.NewMySqlStore(db)
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize user store: %v", err)
	}

	sessionStore, err := session.NewMySqlStore(db)
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to initialize session store: %v", err)
	}

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")

	// Adding custom modules
	health_module.RegisterRoutes(baseGroup)

	auth_module.Init(cfg, userStore, newMailer(cfg))
	chat_module.Init(cfg, sessionStore)
	users_module.Init(userStore)

	// Auth guard shared by every protected module
	protect := middleware.Protect(userStore, auth_module.Secret())

	auth_module.RegisterRoutes(baseGroup, protect)
	chat_module.RegisterRoutes(baseGroup, protect)
	users_module.RegisterRoutes(baseGroup, protect)

	// Welcome route for uptime checks against the bare domain
	engine.GET("/", func(c *gin.Context) {
		c.JSON(sdk.NewSuccessResponse(http.StatusOK, "BlackAI backend is running", nil).AsGinResponse())
	})

	startKeepAlive(cfg)

	// Then after performing initial setup, start the server
	if err := engine.Run(":" + port); err != nil {
		log.Fatal("[API-MAIN]: Failed to start server: ", err)
	}
}

// openDatabase connects to MySQL using the environment's connection settings
func openDatabase(cfg *utils.Config) *gorm.DB {
	dbConfig := mysql.Config{
		User:      cfg.Get("MYSQL_USER"),
		Passwd:    cfg.Get("MYSQL_PASSWORD"),
		Net:       "tcp",
		Addr:      fmt.Sprintf("%s:%s", cfg.GetWithDefault("MYSQL_HOST", "localhost"), cfg.GetWithDefault("MYSQL_PORT", "3306")),
		DBName:    cfg.Get("MYSQL_DATABASE"),
		ParseTime: true,
	}

	db, err := gorm.Open(gormmysql.Open(dbConfig.FormatDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to connect to database: %v", err)
	}

	return db
}

// newMailer builds the SMTP sender when the relay is configured. Without one
// the password reset flow reports delivery failures instead of crashing.
func newMailer(cfg *utils.Config) mail.Sender {
	host := cfg.Get("SMTP_HOST")
	if host == "" {
		log.Println("[API-MAIN]: SMTP_HOST not set, password reset emails are disabled")
		return nil
	}

	sender, err := mail.NewSmtpSender(mail.Config{
		Host:     host,
		Port:     cfg.GetIntWithDefault("SMTP_PORT", 587),
		Username: cfg.Get("SMTP_USER"),
		Password: cfg.Get("SMTP_PASSWORD"),
		From:     cfg.GetWithDefault("SMTP_FROM", cfg.Get("SMTP_USER")),
	})
	if err != nil {
		log.Fatalf("[API-MAIN]: Failed to configure mail sender: %v", err)
	}

	return sender
}

// startKeepAlive pings the deployment's own health route on a schedule so
// free-tier hosts do not idle the instance out. The job only runs when a
// public URL is configured.
func startKeepAlive(cfg *utils.Config) {
	serverURL := cfg.Get("SERVER_URL")
	if serverURL == "" {
		serverURL = cfg.Get("RENDER_EXTERNAL_URL")
	}
	if serverURL == "" {
		return
	}

	target := strings.TrimSuffix(serverURL, "/") + "/api/health"
	client := &http.Client{Timeout: 30 * time.Second}

	c := cron.New()
	c.AddFunc("@every 10m", func() {
		resp, err := client.Get(target)
		if err != nil {
			log.Printf("[API-MAIN]: Keep-alive ping failed: %v", err)
			return
		}
		resp.Body.Close()
	})
	c.Start()

	log.Printf("[API-MAIN]: Keep-alive ping scheduled for %s", target)
}

// noRouteHandler replies with a structured 404 for unknown paths
func noRouteHandler(c *gin.Context) {
	c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Route not found").AsGinResponse())
}
