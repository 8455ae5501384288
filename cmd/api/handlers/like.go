package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/interaction/service"
	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
)

type LikeHandler struct {
	likes *service.LikeService
}

func NewLikeHandler(likes *service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// Toggle flips a like on /toggle/:targetType/:targetId. The kind comes off
// the path; the service rejects unknown kinds.
func (h *LikeHandler) Toggle(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	kind := model.TargetType(c.Param("targetType"))
	liked, err := h.likes.Toggle(ctx, userID, kind, c.Param("targetId"))
	if err != nil {
		SendErr(c, err)
		return
	}
	msg := "Unliked successfully"
	if liked {
		msg = "Liked successfully"
	}
	SendResponse(c, errno.Success.WithMessage(msg), map[string]interface{}{"isLiked": liked})
}
