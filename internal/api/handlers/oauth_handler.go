package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/echo-recall/backend/internal/settings"
	"github.com/echo-recall/backend/pkg/config"
	"github.com/echo-recall/backend/pkg/logger"
)

// OAuthHandler implements the Google sign-in variant: instead of pasting an
// API key, the user authorizes the Gemini scope and the resulting bearer
// token becomes the stored credential.
type OAuthHandler struct {
	conf   *oauth2.Config
	store  *settings.Store
	states *gocache.Cache
}

func NewOAuthHandler(cfg config.OAuthConfig, store *settings.Store) *OAuthHandler {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/generative-language",
		},
		Endpoint: google.Endpoint,
	}

	return &OAuthHandler{
		conf:   conf,
		store:  store,
		states: gocache.New(10*time.Minute, 10*time.Minute),
	}
}

func (h *OAuthHandler) Enabled() bool {
	return h.conf.ClientID != "" && h.conf.ClientSecret != ""
}

// Login hands out the Google consent URL with a one-time state.
func (h *OAuthHandler) Login(c *fiber.Ctx) error {
	if !h.Enabled() {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Google sign-in is not configured",
		})
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start sign-in",
		})
	}
	state := base64.URLEncoding.EncodeToString(b)
	h.states.SetDefault(state, struct{}{})

	return c.JSON(fiber.Map{
		"authUrl": h.conf.AuthCodeURL(state, oauth2.AccessTypeOffline),
	})
}

// Callback exchanges the authorization code and stores the bearer token as
// the active credential.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	if !h.Enabled() {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Google sign-in is not configured",
		})
	}

	state := c.Query("state")
	if _, ok := h.states.Get(state); !ok {
		logger.Warn("OAuth callback with unknown state", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state",
		})
	}
	h.states.Delete(state)

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing authorization code",
		})
	}

	token, err := h.conf.Exchange(c.Context(), code)
	if err != nil {
		logger.Error("OAuth code exchange failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Code exchange failed",
		})
	}

	if err := h.store.SetCredential(token.AccessToken, settings.SourceOAuth); err != nil {
		logger.Error("Failed to store bearer token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store credential",
		})
	}

	logger.Info("Credential stored", zap.String("source", settings.SourceOAuth))

	return c.JSON(fiber.Map{"hasCredential": true})
}
