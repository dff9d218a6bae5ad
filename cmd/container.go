// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, AWS clients, file
// storage, jobs) and composes the bounded-context containers.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/config"
	"github.com/Abraxas-365/credit-intake/pkg/creditrequest/creditrequestapi"
	"github.com/Abraxas-365/credit-intake/pkg/creditrequest/creditrequestinfra"
	"github.com/Abraxas-365/credit-intake/pkg/creditrequest/creditrequestsrv"
	"github.com/Abraxas-365/credit-intake/pkg/fsx"
	"github.com/Abraxas-365/credit-intake/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/credit-intake/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/credit-intake/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/credit-intake/pkg/jobx"
	"github.com/Abraxas-365/credit-intake/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/notifx"
	"github.com/Abraxas-365/credit-intake/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/credit-intake/pkg/notifx/notifxses"
	"github.com/Abraxas-365/credit-intake/pkg/ratelimitx"
	"github.com/Abraxas-365/credit-intake/pkg/requester/requesterapi"
	"github.com/Abraxas-365/credit-intake/pkg/requester/requesterinfra"
	"github.com/Abraxas-365/credit-intake/pkg/requester/requestersrv"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const finishedJobTTL = 24 * time.Hour

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	AWS        aws.Config
	FileSystem fsx.FileSystem
	Notifier   *notifx.Client
	Jobs       *jobx.Client

	// rate limit counters; nil keeps them in process memory
	limiterStorage fiber.Storage

	// Bounded-context containers
	IAM *iamcontainer.Container

	RequesterHandlers     *requesterapi.Handlers
	CreditRequestHandlers *creditrequestapi.Handlers
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure(ctx)
	c.initModules(ctx)

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, AWS, file storage, notifications, jobs
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(ctx).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	if c.Config.RateLimit.UseRedis {
		c.limiterStorage = ratelimitx.NewRedisStorage(c.Redis, c.Config.RateLimit.Prefix)
		logx.Info("  ✅ Rate limit counters stored in Redis")
	}

	// 3. AWS
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(c.Config.AWS.Region))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	c.AWS = awsCfg
	logx.Infof("  ✅ AWS config loaded (region: %s)", c.Config.AWS.Region)

	// 4. File storage
	c.initFileStorage()

	// 5. Notifications
	c.initNotifier()

	// 6. Jobs
	c.initJobs()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.Mode {
	case "s3":
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(c.AWS), storage.Bucket, storage.Prefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)", storage.Bucket, c.Config.AWS.Region)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.GetBasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", storage.Mode)
	}
}

func (c *Container) initNotifier() {
	n := c.Config.Notifx

	var sender notifx.EmailSender
	switch n.Provider {
	case "ses":
		sender = notifxses.NewSESProvider(ses.NewFromConfig(c.AWS), n.FromAddress)
	default:
		sender = notifxconsole.NewConsoleProvider()
	}

	c.Notifier = notifx.NewClient(sender, n.FromAddress, n.FromName)
	if err := requestersrv.RegisterTemplates(c.Notifier); err != nil {
		logx.Fatalf("Failed to register email templates: %v", err)
	}
	logx.Infof("  ✅ Notifications configured (provider: %s, templates: %v)", n.Provider, c.Notifier.Templates())
}

func (c *Container) initJobs() {
	j := c.Config.Jobx
	if !j.Enabled {
		logx.Warn("  ⚠️ Background jobs disabled; failed identity rollbacks are only logged")
		return
	}

	queue := jobxredis.NewRedisQueue(c.Redis, j.KeyPrefix, finishedJobTTL)
	c.Jobs = jobx.NewClient(queue,
		jobx.WithQueues(j.Queues...),
		jobx.WithConcurrency(j.Concurrency),
		jobx.WithPollInterval(j.PollInterval),
		jobx.WithShutdownTimeout(j.ShutdownTimeout),
		jobx.WithDequeueTimeout(j.DequeueTimeout),
		jobx.WithDefaultRetryDelay(5*time.Second),
		jobx.WithMaxRetryDelay(10*time.Minute),
		jobx.WithDefaultMaxRetries(j.MaxRetries),
	)
	logx.Infof("  ✅ Job queue configured (queues: %v)", j.Queues)
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules(ctx context.Context) {
	logx.Info("📦 Initializing modules...")

	// IAM
	iam, err := iamcontainer.New(ctx, iamcontainer.Deps{
		Cfg:     c.Config,
		Cognito: cognitoidentityprovider.NewFromConfig(c.AWS),
	})
	if err != nil {
		logx.Fatalf("Failed to initialize IAM: %v", err)
	}
	c.IAM = iam

	// Requester
	requesterRepo := requesterinfra.NewPostgresRequesterRepository(c.DB)

	// a nil *jobx.Client must not reach the service as a non-nil interface
	var enqueuer jobx.JobEnqueuer
	if c.Jobs != nil {
		enqueuer = c.Jobs
	}
	requesterService := requestersrv.NewService(
		requesterRepo,
		iam.Provider,
		c.FileSystem,
		enqueuer,
		c.Config.Cognito.RequesterGroup,
		c.Config.Cognito.CallTimeout,
	)
	if c.Jobs != nil {
		requestersrv.NewJobs(requesterRepo, iam.Provider, c.Notifier, c.Config.Cognito.CallTimeout).
			Register(c.Jobs)
	}

	var createLimiter fiber.Handler
	if c.Config.RateLimit.Enabled {
		createLimiter = ratelimitx.New(ratelimitx.Rule{
			Name:    "requester-create",
			Max:     c.Config.RateLimit.RegisterMax,
			Window:  c.Config.RateLimit.Window,
			Storage: c.limiterStorage,
		})
	}
	c.RequesterHandlers = requesterapi.NewHandlers(requesterService, createLimiter)
	logx.Info("  ✅ Requester module initialized")

	// Credit requests
	creditRepo := creditrequestinfra.NewPostgresCreditRequestRepository(c.DB)
	creditService := creditrequestsrv.NewService(creditRepo)
	c.CreditRequestHandlers = creditrequestapi.NewHandlers(creditService, requesterService)
	logx.Info("  ✅ Credit request module initialized")
}

// GeneralLimiter is the per-IP quota applied to every route. It returns nil
// when rate limiting is disabled.
func (c *Container) GeneralLimiter() fiber.Handler {
	if !c.Config.RateLimit.Enabled {
		return nil
	}
	return ratelimitx.New(ratelimitx.Rule{
		Name:    "general",
		Max:     c.Config.RateLimit.Max,
		Window:  c.Config.RateLimit.Window,
		Storage: c.limiterStorage,
		Skip: func(ctx *fiber.Ctx) bool {
			return ctx.Path() == "/health"
		},
	})
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (c *Container) RegisterRoutes(app *fiber.App) {
	authn := c.IAM.Authenticate()

	c.IAM.RegisterRoutes(app)
	logx.Info("✓ Auth routes registered")

	c.RequesterHandlers.RegisterRoutes(app, authn)
	logx.Info("✓ Requester routes registered")

	c.CreditRequestHandlers.RegisterRoutes(app, authn)
	logx.Info("✓ Credit request routes registered")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the job workers until ctx is cancelled. done
// is closed once they have drained.
func (c *Container) StartBackgroundServices(ctx context.Context) (done <-chan struct{}) {
	logx.Info("🔄 Starting background services...")

	ch := make(chan struct{})
	if c.Jobs == nil {
		close(ch)
		return ch
	}

	go func() {
		defer close(ch)
		if err := c.Jobs.Start(ctx); err != nil {
			logx.Errorf("Job workers stopped: %v", err)
		}
	}()
	return ch
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
