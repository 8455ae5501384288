package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/cors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/api/handlers"
	interactiondb "vidtube.com/cmd/interaction/dal/db"
	"vidtube.com/cmd/interaction/infras/redis"
	interaction "vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	relationdb "vidtube.com/cmd/relation/dal/db"
	relation "vidtube.com/cmd/relation/service"
	tweetdb "vidtube.com/cmd/tweet/dal/db"
	tweet "vidtube.com/cmd/tweet/service"
	userdb "vidtube.com/cmd/user/dal/db"
	user "vidtube.com/cmd/user/service"
	videodb "vidtube.com/cmd/video/dal/db"
	video "vidtube.com/cmd/video/service"
	"vidtube.com/config"
	"vidtube.com/pkg/database"
	"vidtube.com/pkg/jwt"
	"vidtube.com/pkg/mq"
	"vidtube.com/pkg/oss"
	"vidtube.com/pkg/pipeline"
)

func main() {
	config.Init()
	cfg := &config.ConfigInfo

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Mongo.Uri, cfg.Mongo.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer func() {
		if err := database.Disconnect(context.Background(), db); err != nil {
			logrus.Errorf("Failed to disconnect mongo: %v", err)
		}
	}()

	if err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logrus.Errorf("Failed to connect to redis, comment guards and pending marks disabled: %v", err)
	} else {
		defer redis.Close()
	}

	// The broker is an observer, not a dependency: the service runs without it.
	var producer *mq.Producer
	amqpURL := fmt.Sprintf("amqp://%s:%s@%s/", cfg.RabbitMq.Username, cfg.RabbitMq.Password, cfg.RabbitMq.Addr)
	if producer, err = mq.NewProducer(amqpURL); err != nil {
		logrus.Errorf("Failed to connect to rabbitmq, events disabled: %v", err)
		producer = nil
	} else {
		defer producer.Close()
	}

	var media video.MediaStore
	if store, err := oss.NewStore(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL); err != nil {
		logrus.Errorf("Failed to connect to object store, media URLs disabled: %v", err)
	} else {
		media = store
	}

	videoDAO := videodb.NewVideoDAO(db)
	commentDAO := interactiondb.NewCommentDAO(db)
	likeDAO := interactiondb.NewLikeDAO(db)
	tweetDAO := tweetdb.NewTweetDAO(db)
	subscriptionDAO := relationdb.NewSubscriptionDAO(db)
	userDAO := userdb.NewUserDAO(db)

	paginator := &pipeline.Paginator{
		MaxLimit:     cfg.Query.MaxLimit,
		MaxQueryTime: cfg.Query.MaxQueryTime,
	}

	var likePub interaction.EventPublisher
	var consistencyPub interaction.ConsistencyPublisher
	if producer != nil {
		likePub = producer
		consistencyPub = producer
	}

	targets := interaction.TargetRegistry{
		model.TargetVideo:   videoDAO.Exists,
		model.TargetComment: commentDAO.Exists,
		model.TargetTweet:   tweetDAO.Exists,
	}
	likeService := interaction.NewLikeService(likeDAO, targets, likePub)

	marks := interaction.RedisPendingMarks{}
	cascadeService := interaction.NewCascadeService(likeDAO, commentDAO, marks, consistencyPub)

	var guard interaction.CommentGuard = interaction.RedisCommentGuard{}
	commentService := interaction.NewCommentService(commentDAO, videoDAO.Exists, cascadeService, guard, paginator)
	videoService := video.NewVideoService(videoDAO, userDAO, media, cascadeService, paginator, 15*time.Minute)
	tweetService := tweet.NewTweetService(tweetDAO, cascadeService, paginator)
	relationService := relation.NewRelationService(subscriptionDAO, userDAO.Exists)
	userService := user.NewUserService(userDAO, likeDAO.Executor(), paginator)

	auth := func(ctx context.Context, identifier, password string) (string, error) {
		u, err := userService.Authenticate(ctx, identifier, password)
		if err != nil {
			return "", err
		}
		return u.ID.Hex(), nil
	}
	if err := jwt.Init(cfg.Jwt.Secret, cfg.Jwt.AccessTTL, cfg.Jwt.RefreshTTL, auth, userService); err != nil {
		logrus.Fatalf("Failed to init jwt middleware: %v", err)
	}

	parents := interaction.ParentRegistry{
		model.TargetVideo: func(ctx context.Context, id primitive.ObjectID) error {
			_, err := videoDAO.Delete(ctx, id)
			return err
		},
		model.TargetComment: commentDAO.Delete,
		model.TargetTweet:   tweetDAO.Delete,
	}
	reconciler := interaction.NewReconciler(cascadeService, parents, marks)
	if err := reconciler.Start(); err != nil {
		logrus.Errorf("Failed to start reconciler: %v", err)
	}
	defer reconciler.Stop()

	h := server.Default(server.WithHostPorts(cfg.Server.Addr))
	h.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	register(h, apiHandlers{
		users:         handlers.NewUserHandler(userService),
		videos:        handlers.NewVideoHandler(videoService),
		comments:      handlers.NewCommentHandler(commentService),
		likes:         handlers.NewLikeHandler(likeService),
		tweets:        handlers.NewTweetHandler(tweetService),
		subscriptions: handlers.NewSubscriptionHandler(relationService),
	})

	h.Spin()
}
