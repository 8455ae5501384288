package main

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"vidtube.com/cmd/api/handlers"
	"vidtube.com/pkg/jwt"
)

type apiHandlers struct {
	users         *handlers.UserHandler
	videos        *handlers.VideoHandler
	comments      *handlers.CommentHandler
	likes         *handlers.LikeHandler
	tweets        *handlers.TweetHandler
	subscriptions *handlers.SubscriptionHandler
}

// register wires the route table. Reads run behind OptionalAuth so anonymous
// viewers get is_liked/is_subscribed as false; mutations require a token.
func register(h *server.Hertz, api apiHandlers) {
	auth := jwt.AuthMiddleware.MiddlewareFunc()
	optional := jwt.OptionalAuth()

	v1 := h.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", api.users.Register)
	users.POST("/login", loginHandler())
	users.POST("/refresh", jwt.RefreshHandler())
	users.POST("/logout", auth, api.users.Logout)
	users.GET("/c/:username", optional, api.users.ChannelProfile)
	users.GET("/history", auth, api.users.WatchHistory)

	videos := v1.Group("/videos")
	videos.GET("/", optional, api.videos.Feed)
	videos.GET("/:videoId", optional, api.videos.GetByID)
	videos.POST("/", auth, api.videos.Publish)
	videos.PATCH("/:videoId", auth, api.videos.Update)
	videos.PATCH("/toggle/:videoId", auth, api.videos.TogglePublish)
	videos.DELETE("/:videoId", auth, api.videos.Delete)

	comments := v1.Group("/comments")
	comments.GET("/:videoId", optional, api.comments.List)
	comments.POST("/:videoId", auth, api.comments.Create)
	comments.PATCH("/c/:commentId", auth, api.comments.Update)
	comments.DELETE("/c/:commentId", auth, api.comments.Delete)

	likes := v1.Group("/likes", auth)
	likes.GET("/videos", api.users.LikedVideos)
	likes.POST("/toggle/:targetType/:targetId", api.likes.Toggle)

	tweets := v1.Group("/tweets")
	tweets.GET("/user/:userId", optional, api.tweets.ListByUser)
	tweets.POST("/", auth, api.tweets.Create)
	tweets.PATCH("/:tweetId", auth, api.tweets.Update)
	tweets.DELETE("/:tweetId", auth, api.tweets.Delete)

	subscriptions := v1.Group("/subscriptions", auth)
	subscriptions.POST("/toggle/:channelId", api.subscriptions.Toggle)
}

func loginHandler() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		jwt.AuthMiddleware.LoginHandler(ctx, c)
	}
}
