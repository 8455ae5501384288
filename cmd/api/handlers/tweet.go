package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/tweet/service"
	"vidtube.com/pkg/errno"
)

type TweetHandler struct {
	tweets *service.TweetService
}

func NewTweetHandler(tweets *service.TweetService) *TweetHandler {
	return &TweetHandler{tweets: tweets}
}

type tweetParam struct {
	Content string `json:"content" form:"content"`
}

func (h *TweetHandler) Create(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req tweetParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	tweet, err := h.tweets.Create(ctx, userID, req.Content)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Tweet created successfully"), tweet)
}

func (h *TweetHandler) Update(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req tweetParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	tweet, err := h.tweets.Update(ctx, userID, c.Param("tweetId"), req.Content)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Tweet updated successfully"), tweet)
}

func (h *TweetHandler) Delete(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	if err := h.tweets.Delete(ctx, userID, c.Param("tweetId")); err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Tweet deleted successfully"), nil)
}

func (h *TweetHandler) ListByUser(ctx context.Context, c *app.RequestContext) {
	page, limit := pageParams(c)
	result, err := h.tweets.ListByUser(ctx, c.Param("userId"), viewer(c), page, limit)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, result)
}
