package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/video/service"
	"vidtube.com/pkg/errno"
)

type VideoHandler struct {
	videos *service.VideoService
}

func NewVideoHandler(videos *service.VideoService) *VideoHandler {
	return &VideoHandler{videos: videos}
}

func (h *VideoHandler) Feed(ctx context.Context, c *app.RequestContext) {
	page, limit := pageParams(c)
	params := service.FeedParams{
		Query:    c.Query("query"),
		OwnerHex: c.Query("userId"),
		SortBy:   c.Query("sortBy"),
		SortAsc:  c.Query("sortType") == "asc",
		Page:     page,
		Limit:    limit,
	}
	result, err := h.videos.Feed(ctx, params, viewer(c))
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, result)
}

func (h *VideoHandler) GetByID(ctx context.Context, c *app.RequestContext) {
	video, err := h.videos.GetByID(ctx, c.Param("videoId"), viewer(c))
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, video)
}

type publishParam struct {
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description"`
	Duration    float64 `json:"duration" form:"duration"`
}

func (h *VideoHandler) Publish(ctx context.Context, c *app.RequestContext) {
	owner, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req publishParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	ticket, err := h.videos.Publish(ctx, owner, req.Title, req.Description, req.Duration)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Video created, upload the media to the returned URLs"), ticket)
}

type updateVideoParam struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

func (h *VideoHandler) Update(ctx context.Context, c *app.RequestContext) {
	owner, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	var req updateVideoParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	video, err := h.videos.Update(ctx, owner, c.Param("videoId"), req.Title, req.Description)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Video updated successfully"), video)
}

func (h *VideoHandler) TogglePublish(ctx context.Context, c *app.RequestContext) {
	owner, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	video, err := h.videos.TogglePublish(ctx, owner, c.Param("videoId"))
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Publish status toggled"), video)
}

func (h *VideoHandler) Delete(ctx context.Context, c *app.RequestContext) {
	owner, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	if err := h.videos.Delete(ctx, owner, c.Param("videoId")); err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Video deleted successfully"), nil)
}
