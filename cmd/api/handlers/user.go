package handlers

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"vidtube.com/cmd/user/service"
	"vidtube.com/pkg/errno"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerParam struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	FullName string `json:"fullName" form:"fullName"`
	Password string `json:"password" form:"password"`
}

func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req registerParam
	if err := c.BindAndValidate(&req); err != nil {
		SendResponse(c, errno.ParamErr, nil)
		return
	}
	user, err := h.users.Register(ctx, service.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("User registered successfully"), user)
}

// Logout drops the stored refresh token. The access token stays valid
// until it expires; logout only stops it from being renewed.
func (h *UserHandler) Logout(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	if err := h.users.StoreRefreshToken(ctx, userID, ""); err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success.WithMessage("Logged out successfully"), nil)
}

func (h *UserHandler) ChannelProfile(ctx context.Context, c *app.RequestContext) {
	profile, err := h.users.ChannelProfile(ctx, c.Param("username"), viewer(c))
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, profile)
}

func (h *UserHandler) WatchHistory(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	page, limit := pageParams(c)
	result, err := h.users.WatchHistory(ctx, userID, page, limit)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, result)
}

func (h *UserHandler) LikedVideos(ctx context.Context, c *app.RequestContext) {
	userID, ok := mustViewer(c)
	if !ok {
		SendResponse(c, errno.AuthorizationFailed, nil)
		return
	}
	page, limit := pageParams(c)
	result, err := h.users.LikedVideos(ctx, userID, page, limit)
	if err != nil {
		SendErr(c, err)
		return
	}
	SendResponse(c, errno.Success, result)
}
