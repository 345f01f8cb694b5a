package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mi-raf/comment-moderation/internal/auth"
	"github.com/mi-raf/comment-moderation/internal/models"
	"github.com/mi-raf/comment-moderation/internal/service"
	"github.com/mi-raf/comment-moderation/internal/stats"
)

const userKey = "username"

// Resolver maps HTTP requests onto the services.
type Resolver struct {
	ps   *service.PostService
	cs   *service.CommentService
	agg  *stats.Aggregator
	auth *auth.Service
}

type (
	registerRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required,max=64"`
		Password string `json:"password" validate:"required"`
	}

	loginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	postRequest struct {
		Title            string   `json:"title" validate:"required"`
		Content          string   `json:"content" validate:"required"`
		AutoReplyEnabled bool     `json:"auto_reply_enabled"`
		AutoReplyDelay   *float64 `json:"auto_reply_delay" validate:"omitempty,gte=0,lte=525600"`
	}

	postUpdateRequest struct {
		Title   *string `json:"title" validate:"omitempty,min=1"`
		Content *string `json:"content" validate:"omitempty,min=1"`
	}

	commentRequest struct {
		Content string `json:"content" validate:"required"`
	}
)

func NewResolver(ps *service.PostService, cs *service.CommentService, agg *stats.Aggregator, au *auth.Service) *Resolver {
	return &Resolver{ps: ps, cs: cs, agg: agg, auth: au}
}

func (r *Resolver) Register(e *echo.Echo) {
	e.POST("/register", r.register)
	e.POST("/login", r.login)

	e.GET("/posts", r.posts)
	e.GET("/posts/:id", r.post)
	e.POST("/posts", r.createPost, r.requireUser)
	e.PUT("/posts/:id", r.updatePost, r.requireUser)
	e.DELETE("/posts/:id", r.deletePost, r.requireUser)

	e.GET("/posts/:id/comments", r.comments)
	e.POST("/posts/:id/comments", r.createComment, r.requireUser)
	e.PUT("/posts/:id/comments/:cid", r.updateComment, r.requireUser)
	e.DELETE("/posts/:id/comments/:cid", r.deleteComment, r.requireUser)

	e.GET("/api/posts/comments", r.allComments)
	e.GET("/api/comments-daily-breakdown", r.dailyBreakdown)
}

func (r *Resolver) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := strings.TrimSpace(strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "))
		if token == "" {
			return models.ErrUnauthorized
		}
		username, err := r.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		c.Set(userKey, username)
		return next(c)
	}
}

func currentUser(c echo.Context) string {
	u, _ := c.Get(userKey).(string)
	return u
}

func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (r *Resolver) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := r.auth.Register(c.Request().Context(), req.Email, req.Username, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (r *Resolver) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := r.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (r *Resolver) posts(c echo.Context) error {
	posts, err := r.ps.Posts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (r *Resolver) post(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	p, err := r.ps.Post(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (r *Resolver) createPost(c echo.Context) error {
	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := r.ps.CreatePost(c.Request().Context(), currentUser(c), service.NewPost{
		Title:            req.Title,
		Content:          req.Content,
		AutoReplyEnabled: req.AutoReplyEnabled,
		AutoReplyDelay:   req.AutoReplyDelay,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (r *Resolver) updatePost(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req postUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := r.ps.UpdatePost(c.Request().Context(), id, currentUser(c), models.PostUpdate{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (r *Resolver) deletePost(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := r.ps.DeletePost(c.Request().Context(), id, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"detail": "Post deleted"})
}

func (r *Resolver) comments(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	comments, err := r.cs.Comments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comments)
}

func (r *Resolver) createComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := r.cs.CreateComment(c.Request().Context(), id, currentUser(c), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (r *Resolver) updateComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	cid, err := idParam(c, "cid")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := r.cs.UpdateComment(c.Request().Context(), id, cid, currentUser(c), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comment)
}

func (r *Resolver) deleteComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	cid, err := idParam(c, "cid")
	if err != nil {
		return err
	}
	if err := r.cs.DeleteComment(c.Request().Context(), id, cid, currentUser(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"detail": "Comment deleted"})
}

func (r *Resolver) allComments(c echo.Context) error {
	all, err := r.cs.AllComments(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, all)
}

func (r *Resolver) dailyBreakdown(c echo.Context) error {
	res, err := r.agg.DailyBreakdown(c.Request().Context(), c.QueryParam("date_from"), c.QueryParam("date_to"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
