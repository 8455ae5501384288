package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vidtube.com/cmd/model"
	"vidtube.com/pkg/errno"
	"vidtube.com/pkg/pipeline"
	"vidtube.com/pkg/utils"
)

// UserStore is the storage contract of the user operations.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	SetRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error
	Executor() pipeline.Executor
}

type UserService struct {
	users     UserStore
	likes     pipeline.Executor
	paginator *pipeline.Paginator
}

// NewUserService takes the likes executor alongside the user store: the
// liked-videos feed aggregates over the likes collection, newest like first.
func NewUserService(users UserStore, likes pipeline.Executor, paginator *pipeline.Paginator) *UserService {
	return &UserService{users: users, likes: likes, paginator: paginator}
}

// RegisterParams carries the signup fields.
type RegisterParams struct {
	Username string
	Email    string
	FullName string
	Password string
}

func (p *RegisterParams) validate() error {
	p.Username = strings.TrimSpace(strings.ToLower(p.Username))
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)
	switch {
	case p.Username == "":
		return errno.ParamErr.WithMessage("Username cannot be empty")
	case p.Email == "" || !strings.Contains(p.Email, "@"):
		return errno.ParamErr.WithMessage("A valid email address is required")
	case len(p.Password) < 6:
		return errno.ParamErr.WithMessage("Password must be at least 6 characters")
	}
	return nil
}

// Register creates a user with a bcrypt password hash. A username collision
// surfaces as a conflict from the unique index.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	hashed, err := utils.Crypt(params.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: params.Username,
		Email:    params.Email,
		FullName: params.FullName,
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a username-or-email identifier and verifies the
// password. It backs the login middleware.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || password == "" {
		return nil, errno.ParamErr.WithMessage("Identifier and password are required")
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, errno.AuthorizationFailed.WithMessage("invalid credentials")
	}
	if !utils.VerifyPassword(password, user.Password) {
		return nil, errno.AuthorizationFailed.WithMessage("invalid credentials")
	}
	return user, nil
}

func (s *UserService) StoreRefreshToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	return s.users.SetRefreshToken(ctx, userID, token)
}

// StoreSession persists the token issued at login or refresh. Renewal
// checks the presented token against it, so clearing it ends the session.
func (s *UserService) StoreSession(ctx context.Context, userHex, token string) error {
	userID, err := utils.ParseObjectID(userHex)
	if err != nil {
		return err
	}
	return s.users.SetRefreshToken(ctx, userID, token)
}

// ValidateSession reports whether the presented token is the one stored
// for the user. An empty stored token means the session was revoked.
func (s *UserService) ValidateSession(ctx context.Context, userHex, token string) error {
	userID, err := utils.ParseObjectID(userHex)
	if err != nil {
		return errno.AuthorizationFailed
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errno.AuthorizationFailed
	}
	if user.RefreshToken == "" || user.RefreshToken != token {
		return errno.AuthorizationFailed.WithMessage("session revoked")
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, userHex string) (*model.User, error) {
	userID, err := utils.ParseObjectID(userHex)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *UserService) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.users.Exists(ctx, id)
}

// ChannelProfile returns a channel page with subscriber counts and the
// viewer's subscription state.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewer *primitive.ObjectID) (bson.M, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, errno.ParamErr.WithMessage("Username cannot be empty")
	}
	stages := pipeline.ChannelProfile(username, viewer)
	var docs []bson.M
	if err := s.users.Executor().Aggregate(ctx, pipeline.Compile(stages), &docs); err != nil {
		return nil, errno.ConvertErr(err)
	}
	if len(docs) == 0 {
		return nil, errno.NotFound.WithMessage("channel does not exist")
	}
	return docs[0], nil
}

// WatchHistory returns the videos the user has opened, enriched with the
// uploader profile.
func (s *UserService) WatchHistory(ctx context.Context, userID primitive.ObjectID, page, limit int64) (*pipeline.Page, error) {
	stages := pipeline.WatchHistory(userID)
	var items []bson.M
	return s.paginator.Execute(ctx, s.users.Executor(), stages, page, limit, &items)
}

// LikedVideos returns the videos the user has liked, newest like first.
func (s *UserService) LikedVideos(ctx context.Context, userID primitive.ObjectID, page, limit int64) (*pipeline.Page, error) {
	stages := pipeline.LikedVideos(userID)
	var items []bson.M
	return s.paginator.Execute(ctx, s.likes, stages, page, limit, &items)
}
