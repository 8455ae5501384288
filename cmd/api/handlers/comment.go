package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/interaction/service"
	"vidtube.com/pkg/errno"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentParam struct {
	Content string `json:"content" form:"content"`
}

func (h *CommentHandler) Create(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req commentParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	comment, err := h.comments.Create(ctx, userID, c.Param("videoId"), req.Content)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Comment added successfully"), comment)
}

func (h *CommentHandler) Update(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req commentParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	comment, err := h.comments.Update(ctx, userID, c.Param("commentId"), req.Content)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Comment updated successfully"), comment)
}

func (h *CommentHandler) Delete(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	if err := h.comments.Delete(ctx, userID, c.Param("commentId")); err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Comment deleted successfully"), nil)
}

func (h *CommentHandler) List(ctx context.Context, c *app.RequestContext) {
	page, limit := pageParams(c)
	result, err := h.comments.List(ctx, c.Param("videoId"), viewer(c), page, limit)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, result)
}
