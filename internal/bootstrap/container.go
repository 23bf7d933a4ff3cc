package bootstrap

import (
	"context"
	"log"

	"matrimony-relay-be/internal/config"
	"matrimony-relay-be/internal/handler"
	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/relay"
	"matrimony-relay-be/internal/repository/implementation"
	"matrimony-relay-be/internal/repository/memory"
	"matrimony-relay-be/internal/service"
	pktNats "matrimony-relay-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const relayEventsTopic = "relay.events"

type Container struct {
	// REST surface
	NotificationHandler *handler.NotificationHandler

	// Relay core
	RelayHandler *relay.Handler
	Hub          *relay.Hub

	// Background services exposed for main.go to run
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Repositories
	userRepo := memory.NewCachedUserRepository(implementation.NewUserRepository(db))
	chatRepo := implementation.NewChatRepository(db)
	messageRepo := implementation.NewMessageRepository(db)
	notificationRepo := implementation.NewNotificationRepository(db)
	callRepo := implementation.NewCallRepository(db)

	// Internal event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	publisherService := service.NewPublisherService(relayEventsTopic, pubSub)

	// NATS (platform bus). Optional: the relay keeps working without it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis (cross-instance hub leg). Optional as well.
	var rdb *redis.Client
	if opt, err := redis.ParseURL(cfg.App.RedisURL); err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v", err)
	} else {
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// Relay core with its isolated log file
	relayLogger := logger.NewIsolatedLogger(cfg.Relay.LogFilePath)
	hub := relay.NewHub(rdb, relayLogger)
	go hub.Run(context.Background())

	callSignaler := relay.NewCallSignaler(hub, callRepo, publisherService, relayLogger)
	chatRelay := relay.NewChatRelay(hub, chatRepo, messageRepo, notificationRepo, userRepo, publisherService, relayLogger)
	typingCoordinator := relay.NewTypingCoordinator(hub, chatRepo, relayLogger)
	dispatcher := relay.NewDispatcher(hub, chatRelay, typingCoordinator, callSignaler, userRepo, relayLogger)
	relayHandler := relay.NewHandler(hub, dispatcher, callSignaler, userRepo, chatRepo, publisherService, relayLogger, cfg.Relay.SendBufferSize)

	// Services
	notificationService := service.NewNotificationService(notificationRepo)
	consumerService := service.NewConsumerService(pubSub, relayEventsTopic, natsPub, sysLogger)

	return &Container{
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		RelayHandler:        relayHandler,
		Hub:                 hub,
		ConsumerService:     consumerService,
		Logger:              sysLogger,
	}
}
