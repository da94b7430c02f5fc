package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"messageboard-backend/internal/config"
	"messageboard-backend/internal/infrastructure/cache"
	"messageboard-backend/internal/infrastructure/changefeed"
	"messageboard-backend/internal/infrastructure/database"
	"messageboard-backend/internal/infrastructure/storage"
	"messageboard-backend/pkg/jwt"

	// User domain
	"messageboard-backend/internal/domains/user"
	userHandler "messageboard-backend/internal/domains/user/handler"
	userRepo "messageboard-backend/internal/domains/user/repository"
	userService "messageboard-backend/internal/domains/user/service"

	// Post domain
	postHandler "messageboard-backend/internal/domains/post/handler"
	postRepo "messageboard-backend/internal/domains/post/repository"
	postService "messageboard-backend/internal/domains/post/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the application and is the root
// of the dependency graph. All fields are singletons for the app lifetime.
type Container struct {
	// Infrastructure layer - shared across all domains
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *cache.RedisClient
	Sessions   *cache.SessionStore
	Storage    *storage.MinIOStorage
	Feed       *changefeed.RedisBroker
	JWTManager *jwt.Manager

	// Repository layer (data access)
	UserRepo user.Repository
	PostRepo postRepo.PostRepository

	// Service layer (business logic)
	UserService user.Service
	PostService postService.PostService

	// Handler layer (HTTP)
	UserHandler *userHandler.UserHandler
	PostHandler *postHandler.PostHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the whole dependency graph in order:
//
//	config -> infrastructure (DB, Redis, MinIO, change feed) ->
//	repositories -> services -> handlers
//
// A failure at any step aborts startup; there is no partially wired app.
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI container...")

	c := &Container{}

	// STEP 1: configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (environment: %s)", cfg.App.Environment)

	// STEP 2: PostgreSQL
	db := database.NewPostgresDB(&database.DBConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Database,

		MaxConns:          int32(cfg.Database.MaxConns),
		MinConns:          int32(cfg.Database.MinConns),
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,

		MaxRetries:     5,
		RetryDelay:     time.Second,
		ConnectTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Println("✅ Database connected")

	// STEP 3: Redis. It backs session revocation and the change feed,
	// so a dead Redis is fatal: logout and live updates cannot degrade
	// silently.
	rc := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := rc.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = rc
	c.Sessions = cache.NewSessionStore(rc.Client)
	log.Println("✅ Redis connected")

	// STEP 4: MinIO object storage for post attachments
	store, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = store
	log.Println("✅ Object storage ready")

	// STEP 5: change feed over Redis pub/sub
	c.Feed = changefeed.NewRedisBroker(rc.Client, cfg.Feed.Channel)
	log.Printf("✅ Change feed subscribed (channel: %s)", cfg.Feed.Channel)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// STEP 6: repositories
	c.initRepositories()

	// STEP 7: services
	c.initServices()

	// STEP 8: handlers
	c.initHandlers()

	log.Println("🎉 DI container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.PostRepo = postRepo.NewPostgresPostRepository(pool)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager, c.Sessions)
	c.PostService = postService.NewPostService(c.PostRepo, c.Storage, c.Feed)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.PostHandler = postHandler.NewPostHandler(c.PostService, c.Feed)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup releases resources on shutdown. Order matters: the change feed
// goes first so no subscriber sees a closed Redis connection underneath it.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.Feed != nil {
		c.Feed.Close()
		log.Println("✅ Change feed closed")
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	log.Println("✅ Container cleanup completed")
}
