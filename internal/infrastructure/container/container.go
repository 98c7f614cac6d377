package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/config"
	deliveryhttp "github.com/gdugdh24/rider-seeker-backend/internal/delivery/http"
	"github.com/gdugdh24/rider-seeker-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/rider-seeker-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/database"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/otp"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/payment"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/server"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository/memory"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository/postgres"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/auth"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/feed"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/kyc"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/match"
	paymentuc "github.com/gdugdh24/rider-seeker-backend/internal/usecase/payment"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/profile"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/rating"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/ride"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/swipe"
)

// localUploadsURL is where the local storage backend is served when no
// public base URL is configured.
const localUploadsURL = "/uploads"

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Router *gin.Engine
	Server *server.Server

	closers []func() error
}

// Repositories is the storage backend selected by DB_DRIVER.
type Repositories struct {
	Tx       repository.TxManager
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Rides    repository.RideRepository
	Swipes   repository.SwipeRepository
	Matches  repository.MatchRepository
	Ratings  repository.RatingRepository
	Payments repository.PaymentRepository
}

func postgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Tx:       postgres.NewTxManager(db),
		Users:    postgres.NewUserRepository(db),
		Profiles: postgres.NewProfileRepository(db),
		Rides:    postgres.NewRideRepository(db),
		Swipes:   postgres.NewSwipeRepository(db),
		Matches:  postgres.NewMatchRepository(db),
		Ratings:  postgres.NewRatingRepository(db),
		Payments: postgres.NewPaymentRepository(db),
	}
}

func memoryRepositories() Repositories {
	s := memory.NewStore()
	return Repositories{
		Tx:       memory.NewTxManager(s),
		Users:    memory.NewUserRepository(s),
		Profiles: memory.NewProfileRepository(s),
		Rides:    memory.NewRideRepository(s),
		Swipes:   memory.NewSwipeRepository(s),
		Matches:  memory.NewMatchRepository(s),
		Ratings:  memory.NewRatingRepository(s),
		Payments: memory.NewPaymentRepository(s),
	}
}

// NewContainer creates a new dependency injection container. Optional
// backends (Redis, Stripe, Kafka, Gemini) fall back to in-process versions
// when they are not configured.
func NewContainer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (c *Container, err error) {
	c = &Container{Config: cfg}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	health := map[string]handler.Pinger{}

	// Initialize repositories
	var repos Repositories
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		repos = memoryRepositories()
	default:
		c.DB, err = database.NewPostgresDB(ctx, &cfg.Database, log)
		if err != nil {
			return c, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.closers = append(c.closers, c.DB.Close)
		if cfg.Database.AutoMigrate {
			if err = database.Migrate(ctx, c.DB); err != nil {
				return c, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		health["postgres"] = handler.PingFunc(c.DB.PingContext)
		repos = postgresRepositories(c.DB)
	}

	// Initialize Redis
	var codes otp.CodeStore
	if cfg.Redis.Enabled() {
		c.Redis, err = database.NewRedisClient(ctx, &cfg.Redis, log)
		if err != nil {
			return c, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.closers = append(c.closers, c.Redis.Close)
		rdb := c.Redis
		health["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		codes = otp.NewRedisCodeStore(rdb)
	} else {
		log.Warn().Msg("redis not configured, verification codes are kept in memory")
		codes = otp.NewMemoryCodeStore()
	}

	objects, uploadsDir, err := newStorage(ctx, &cfg.Storage)
	if err != nil {
		return c, err
	}

	provider, err := newPaymentProvider(cfg, log)
	if err != nil {
		return c, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		c.closers = append(c.closers, kafka.Close)
		publisher = kafka
	}

	// Initialize Gemini Client. Bio suggestions fall back to templates
	// without it.
	var bios profile.BioGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, gerr := gemini.NewGeminiClient(cfg.GeminiAPIKey)
		if gerr != nil {
			log.Warn().Err(gerr).Msg("failed to initialize gemini client, using bio templates")
		} else {
			c.closers = append(c.closers, geminiClient.Close)
			bios = geminiClient
		}
	}

	// Initialize use cases
	authUseCase := auth.NewAuthUseCase(
		repos.Users,
		codes,
		otp.NewLogSender(log, !cfg.Server.IsProduction()),
		auth.Options{
			JWTSecret:   cfg.JWT.AccessSecret,
			TokenTTL:    time.Duration(cfg.JWT.AccessExpiryMin) * time.Minute,
			CodeTTL:     cfg.OTP.TTL,
			MaxAttempts: cfg.OTP.MaxAttempts,
		},
	)
	profileUseCase := profile.NewProfileUseCase(repos.Tx, repos.Profiles, repos.Users, objects, bios, cfg.Storage.MaxPhotoBytes, log)
	kycUseCase := kyc.NewKYCUseCase(repos.Users, objects, publisher, cfg.Storage.MaxDocumentBytes)
	rideUseCase := ride.NewRideUseCase(repos.Tx, repos.Rides, repos.Matches, repos.Users, publisher, cfg.Payment.Currency)
	feedUseCase := feed.NewFeedUseCase(repos.Users, repos.Rides, repos.Profiles, repos.Swipes)
	matchUseCase := match.NewMatchUseCase(repos.Tx, repos.Matches, repos.Rides, repos.Profiles, publisher)
	swipeUseCase := swipe.NewSwipeUseCase(repos.Swipes, repos.Rides, repos.Users, matchUseCase)
	paymentUseCase := paymentuc.NewPaymentUseCase(
		repos.Tx, repos.Payments, repos.Matches, repos.Rides, repos.Ratings,
		provider, publisher,
		domain.FeePolicy{Rate: cfg.Payment.PlatformFeeRate, Minimum: cfg.Payment.MinPlatformFee},
		log,
	)
	ratingUseCase := rating.NewRatingUseCase(repos.Tx, repos.Ratings, repos.Matches, paymentUseCase, publisher, log)

	// Initialize handlers
	handlers := deliveryhttp.Handlers{
		Health:  handler.NewHealthHandler(health),
		Auth:    handler.NewAuthHandler(authUseCase),
		Profile: handler.NewProfileHandler(profileUseCase, cfg.Storage.MaxPhotoBytes),
		KYC:     handler.NewKYCHandler(kycUseCase, cfg.Storage.MaxDocumentBytes),
		Ride:    handler.NewRideHandler(rideUseCase),
		Feed:    handler.NewFeedHandler(feedUseCase),
		Swipe:   handler.NewSwipeHandler(swipeUseCase),
		Match:   handler.NewMatchHandler(matchUseCase),
		Rating:  handler.NewRatingHandler(ratingUseCase),
		Payment: handler.NewPaymentHandler(paymentUseCase),
	}

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := deliveryhttp.NewRouter(
		handlers,
		middleware.NewAuthMiddleware(authUseCase),
		deliveryhttp.Options{
			UploadsDir:  uploadsDir,
			ReviewToken: cfg.KYC.ReviewToken,
			Logger:      log,
		},
	)
	c.Router = router.Setup()
	c.Server = server.NewServer(&cfg.Server, c.Router, log)

	return c, nil
}

// newStorage returns the object storage and, for the local backend, the
// directory the router serves under /uploads.
func newStorage(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStorage, string, error) {
	if cfg.Type == "s3" {
		s3, err := storage.NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		return s3, "", nil
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = localUploadsURL
	}
	local, err := storage.NewLocalStorage(cfg.Path, baseURL)
	if err != nil {
		return nil, "", err
	}
	return local, cfg.Path, nil
}

func newPaymentProvider(cfg *config.Config, log zerolog.Logger) (payment.Provider, error) {
	if cfg.Stripe.SecretKey != "" {
		return payment.NewBreakerProvider(payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret), log), nil
	}
	if cfg.Server.IsProduction() {
		return nil, errors.New("stripe api key is required in production")
	}
	log.Warn().Msg("stripe not configured, using the sandbox payment provider")
	return payment.NewSandboxProvider(), nil
}

// Close releases connections in reverse order of creation
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
