package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	mysqlDriver "gorm.io/driver/mysql"
	"gorm.io/gorm"

	httpAdapter "github.com/facultyhub/faculty-status/internal/adapters/in/http"
	"github.com/facultyhub/faculty-status/internal/adapters/in/ws"
	"github.com/facultyhub/faculty-status/internal/adapters/out/db"
	"github.com/facultyhub/faculty-status/internal/adapters/out/mq"
	"github.com/facultyhub/faculty-status/internal/adapters/out/redisps"
	"github.com/facultyhub/faculty-status/internal/application"
	"github.com/facultyhub/faculty-status/internal/middleware"
	"github.com/facultyhub/faculty-status/internal/ports/out"
	"github.com/facultyhub/faculty-status/pkg/zlog"
)

// Config 从 YAML 加载的全部配置项
type Config struct {
	Server struct {
		HTTPPort int `mapstructure:"http_port"`
	} `mapstructure:"server"`
	Mysql struct {
		DSN          string `mapstructure:"dsn"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"mysql"`
	Redis struct {
		Enabled  bool   `mapstructure:"enabled"`
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	RateLimit middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Log       zlog.Config                  `mapstructure:"log"`
}

func main() {
	cfgPath := flag.String("config", "", "配置文件路径（YAML），空则按 APP_ENV 在 ./configs 下找")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog.MustInitGlobal(cfg.Log)
	defer zap.L().Sync()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	zlog.RegisterMetrics(promReg)

	// 初始化数据库
	database, err := initDB(cfg)
	if err != nil {
		zap.L().Fatal("init database failed", zap.Error(err))
	}

	// 仓储层
	statusRepo := db.NewStatusRepositoryMySQL(database)
	facultyRepo := db.NewFacultyRepositoryMySQL(database)

	// WebSocket Hub：订阅表 + 本地广播
	hub := ws.NewHub()
	go hub.Run()

	// 多实例部署时经 Redis 中转扇出，单实例直接喂 Hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var broadcaster out.StatusBroadcaster = hub
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zap.L().Fatal("connect redis failed", zap.Error(err))
		}
		relay := redisps.NewRelay(rdb, hub)
		go relay.Run(ctx)
		broadcaster = relay
	}

	// 状态事件流，下游系统消费用，可关
	var eventPublisher out.EventPublisher
	if cfg.Kafka.Enabled {
		eventPublisher, err = mq.NewKafkaEventPublisher(cfg.Kafka.Brokers)
		if err != nil {
			zap.L().Fatal("init kafka publisher failed", zap.Error(err))
		}
		defer eventPublisher.Close()
	}

	// 应用层
	statusUseCase := application.NewStatusUseCase(statusRepo, facultyRepo, broadcaster, eventPublisher)
	facultyUseCase := application.NewFacultyUseCase(facultyRepo, statusRepo)

	// HTTP 服务
	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	// 定期清理闲置的限流桶
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(zlog.GinLogger())
	router.Use(middleware.TrustedIdentity())
	router.Use(rateLimiter.Middleware())

	apiGroup := router.Group("/api")
	httpAdapter.NewStatusController(statusUseCase).RegisterRoutes(apiGroup, middleware.RequireIdentity())
	httpAdapter.NewFacultyController(facultyUseCase).RegisterRoutes(apiGroup)

	startedAt := time.Now()
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC(),
			"uptime":    time.Since(startedAt).String(),
			"ws_conns":  hub.OnlineCount(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
	router.Any("/log/level", gin.WrapF(zlog.LevelHTTPHandler()))

	// WebSocket 路由，query 参数 topics 可带初始订阅
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: router,
	}
	go func() {
		zap.L().Info("http server starting", zap.Int("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("http server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("http server shutdown error", zap.Error(err))
	}

	zap.L().Info("server exited")
}

func loadConfig(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "dev"
		}
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}

	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.max_open_conns", 100)
	viper.SetDefault("rate_limit.global_qps", 1000)
	viper.SetDefault("rate_limit.ip_qps", 50)
	viper.SetDefault("rate_limit.caller_qps", 20)
	viper.SetDefault("rate_limit.burst", 10)
	viper.SetDefault("log.service", "faculty-status")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.encoding", "json")
	viper.SetDefault("log.stdout", true)
	viper.SetDefault("log.enable_metric", true)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func initDB(cfg *Config) (*gorm.DB, error) {
	database, err := gorm.Open(mysqlDriver.Open(cfg.Mysql.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := database.AutoMigrate(&db.FacultyModel{}, &db.StatusModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Mysql.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Mysql.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return database, nil
}
