package handlers

import (
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/pkg/constants"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/jwt"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
}

// SendResponse writes the envelope. The HTTP status mirrors the ErrNo status.
func SendResponse(c *app.RequestContext, err errno.ErrNo, data interface{}) {
	c.JSON(err.StatusCode, Response{
		StatusCode: err.StatusCode,
		Success:    err.ErrCode == errno.SuccessCode,
		Data:       data,
		Message:    err.ErrMsg,
	})
}

// SendErr converts any error to the taxonomy and writes the failure envelope.
func SendErr(c *app.RequestContext, err error) {
	SendResponse(c, errno.ConvertErr(err), nil)
}

// pageParams reads page/limit query parameters. Malformed values fall back
// to the defaults; the paginator clamps out-of-range ones.
func pageParams(c *app.RequestContext) (page, limit int64) {
	page = constants.DefaultPage
	limit = constants.DefaultLimit
	if v, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil {
		page = v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		limit = v
	}
	return page, limit
}

// viewer returns the optional authenticated viewer.
func viewer(c *app.RequestContext) *primitive.ObjectID {
	id, ok := jwt.ViewerID(c)
	if !ok {
		return nil
	}
	return &id
}

// mustViewer returns the authenticated viewer on a protected route.
func mustViewer(c *app.RequestContext) (primitive.ObjectID, bool) {
	return jwt.ViewerID(c)
}
