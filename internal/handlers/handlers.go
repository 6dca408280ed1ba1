// Package handlers wires the HTTP surface: account forms, the upload and
// history view, and history clearing.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/cropguard/internal/auth"
	"github.com/example/cropguard/internal/catalog"
	"github.com/example/cropguard/internal/repository"
	"github.com/example/cropguard/internal/usecase"
)

// User-facing messages. Internal error detail stays in the server logs.
const (
	msgNoFiles        = "Please upload at least one image file."
	msgGenericError   = "An error occurred while processing your upload."
	msgAccountCreated = "Account created, please login"
	msgHistoryCleared = "Your prediction history has been cleared."
)

// Handlers carries the dependencies of the HTTP layer.
type Handlers struct {
	predictions *usecase.PredictionUseCase
	accounts    *usecase.AccountUseCase
	logger      *zap.Logger
	jwtSecret   string
	sessionTTL  time.Duration
}

// New constructs the handler set.
func New(predictions *usecase.PredictionUseCase, accounts *usecase.AccountUseCase, logger *zap.Logger, jwtSecret string, sessionTTL time.Duration) *Handlers {
	return &Handlers{
		predictions: predictions,
		accounts:    accounts,
		logger:      logger.Named("handlers"),
		jwtSecret:   jwtSecret,
		sessionTTL:  sessionTTL,
	}
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/signup", h.signupForm)
	router.POST("/signup", h.signup)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/logout", h.logout)

	authed := router.Group("/", auth.SessionMiddleware(h.jwtSecret))
	authed.GET("/", h.index)
	authed.POST("/", h.upload)
	authed.POST("/clear", h.clearHistory)
}

// historyEntry joins a stored prediction with its catalog detail record.
// Unknown-label rows carry no detail.
type historyEntry struct {
	Item      repository.Prediction
	Detail    catalog.Detail
	HasDetail bool
}

func (h *Handlers) index(c *gin.Context) {
	h.renderIndex(c, c.Query("error"), c.Query("msg"))
}

func (h *Handlers) upload(c *gin.Context) {
	userID, ok := auth.GetUserID(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("multipart parse failed", zap.Error(err))
		h.renderIndex(c, msgNoFiles, "")
		return
	}

	var files []usecase.UploadedFile
	for _, header := range form.File["files"] {
		src, err := header.Open()
		if err != nil {
			h.logger.Error("cannot open uploaded file", zap.String("file", header.Filename), zap.Error(err))
			h.renderIndex(c, msgGenericError, "")
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			h.logger.Error("cannot read uploaded file", zap.String("file", header.Filename), zap.Error(err))
			h.renderIndex(c, msgGenericError, "")
			return
		}
		files = append(files, usecase.UploadedFile{Name: header.Filename, Data: data})
	}

	if _, err := h.predictions.ProcessBatch(c.Request.Context(), userID, files); err != nil {
		if errors.Is(err, usecase.ErrNoFiles) {
			h.renderIndex(c, msgNoFiles, "")
			return
		}
		h.logger.Error("upload batch failed", zap.Uint("user_id", userID), zap.Error(err))
		h.renderIndex(c, msgGenericError, "")
		return
	}

	h.renderIndex(c, "", "")
}

func (h *Handlers) renderIndex(c *gin.Context, errorMsg, msg string) {
	userID, ok := auth.GetUserID(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	history, err := h.predictions.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("history load failed", zap.Uint("user_id", userID), zap.Error(err))
		history = nil
		if errorMsg == "" {
			errorMsg = msgGenericError
		}
	}

	entries := make([]historyEntry, 0, len(history))
	for _, item := range history {
		entry := historyEntry{Item: item}
		if class, ok := catalog.ByLabel(item.DiseaseClass); ok {
			entry.Detail, entry.HasDetail = class.Detail()
		}
		entries = append(entries, entry)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Error":   errorMsg,
		"Msg":     msg,
		"History": entries,
		"Summary": usecase.Summarize(history),
	})
}

func (h *Handlers) clearHistory(c *gin.Context) {
	userID, ok := auth.GetUserID(c.Request.Context())
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	if err := h.predictions.ClearHistory(c.Request.Context(), userID); err != nil {
		h.logger.Error("clear history failed", zap.Uint("user_id", userID), zap.Error(err))
		c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(msgGenericError))
		return
	}
	c.Redirect(http.StatusFound, "/?msg="+url.QueryEscape(msgHistoryCleared))
}

func (h *Handlers) signupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{
		"Error": c.Query("error"),
	})
}

func (h *Handlers) signup(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	_, err := h.accounts.SignUp(c.Request.Context(), username, password)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/login?msg="+url.QueryEscape(msgAccountCreated))
	case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, usecase.ErrMissingCredentials):
		c.Redirect(http.StatusFound, "/signup?error="+url.QueryEscape(err.Error()))
	default:
		h.logger.Error("signup failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/signup?error="+url.QueryEscape(msgGenericError))
	}
}

func (h *Handlers) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Error": c.Query("error"),
		"Msg":   c.Query("msg"),
	})
}

func (h *Handlers) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.accounts.LogIn(c.Request.Context(), username, password)
	if err != nil {
		if !errors.Is(err, usecase.ErrInvalidCredentials) {
			h.logger.Error("login failed", zap.Error(err))
		}
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape(usecase.ErrInvalidCredentials.Error()))
		return
	}

	token, err := auth.IssueToken(user.ID, h.jwtSecret, h.sessionTTL)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape(msgGenericError))
		return
	}

	c.SetCookie(auth.SessionCookie, token, int(h.sessionTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}
