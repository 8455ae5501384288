package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/relation/service"
	"vidtube.com/pkg/errno"
)

type SubscriptionHandler struct {
	relations *service.RelationService
}

func NewSubscriptionHandler(relations *service.RelationService) *SubscriptionHandler {
	return &SubscriptionHandler{relations: relations}
}

func (h *SubscriptionHandler) Toggle(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	subscribed, err := h.relations.Toggle(ctx, userID, c.Param("channelId"))
	if err != nil {
		SendErr(c, err)
		return
	}
	msg := "Unsubscribed successfully"
	if subscribed {
		msg = "Subscribed successfully"
	}
	SendResponse(c, errno.Success.WithMessage(msg), map[string]interface{}{"isSubscribed": subscribed})
}
