package stubserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/config"
	"github.com/spec-kit/volunteer-client/internal/domain"
	"github.com/spec-kit/volunteer-client/internal/realtime"
)

// Server is a development fixture emulating the slice of the volunteer
// platform the client consumes: login, profile, notification-count and
// applications endpoints plus the notification websocket. Error responses
// use the platform's {"detail": ...} envelope.
type Server struct {
	store  *Store
	tokens *TokenManager
	hub    *Hub
	logger *zap.Logger
}

// New builds the fiber app with a seeded store.
func New(cfg config.StubConfig, logger *zap.Logger) (*fiber.App, *Server, error) {
	store := NewStore(cfg.BcryptCost)
	if err := store.Seed(); err != nil {
		return nil, nil, err
	}

	srv := &Server{
		store:  store,
		tokens: NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		hub:    NewHub(logger),
		logger: logger,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	srv.registerRoutes(app)
	return app, srv, nil
}

func (s *Server) registerRoutes(app *fiber.App) {
	app.Post("/auth/login", s.loginUser)
	app.Post("/auth/org/login", s.loginOrganisation)
	app.Get("/user/me", s.currentUser)
	app.Get("/org/me", s.currentOrganisation)
	app.Get("/notifications/count", s.unreadCount)
	app.Get("/org/GetAllAppl/all", s.organisationApplications)
	app.Post("/dev/emit", s.emit)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(s.notificationSocket))
}

// loginUser handles POST /auth/login, the OAuth2 password-grant form.
func (s *Server) loginUser(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return detailError(c, http.StatusBadRequest, "username and password required")
	}

	profile, ok := s.store.AuthenticateUser(username, password)
	if !ok {
		return detailError(c, http.StatusUnauthorized, "Incorrect username or password")
	}

	token, err := s.tokens.GenerateToken(profile.Username, profile.Username, profile.Role)
	if err != nil {
		return detailError(c, http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(fiber.Map{"access_token": token, "token_type": "bearer"})
}

// loginOrganisation handles POST /auth/org/login with a JSON body.
func (s *Server) loginOrganisation(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "invalid payload")
	}

	profile, ok := s.store.AuthenticateOrganisation(req.Email, req.Password)
	if !ok {
		return detailError(c, http.StatusUnauthorized, "Incorrect email or password")
	}

	token, err := s.tokens.GenerateToken(profile.Username, profile.Username, "organisation")
	if err != nil {
		return detailError(c, http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(fiber.Map{"access_token": token, "token_type": "bearer"})
}

func (s *Server) currentUser(c *fiber.Ctx) error {
	claims, err := s.bearerClaims(c)
	if err != nil {
		return detailError(c, http.StatusUnauthorized, "Not authenticated")
	}
	profile, ok := s.store.UserByUsername(claims.Subject)
	if !ok {
		return detailError(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(profile)
}

func (s *Server) currentOrganisation(c *fiber.Ctx) error {
	claims, err := s.bearerClaims(c)
	if err != nil {
		return detailError(c, http.StatusUnauthorized, "Not authenticated")
	}
	profile, ok := s.store.OrganisationByUsername(claims.Subject)
	if !ok {
		return detailError(c, http.StatusNotFound, "Organisation not found")
	}
	return c.JSON(profile)
}

func (s *Server) unreadCount(c *fiber.Ctx) error {
	org, ok, err := s.requireOrganisation(c)
	if !ok {
		return err
	}
	return c.JSON(fiber.Map{"count": s.store.UnreadCount(org.Key())})
}

func (s *Server) organisationApplications(c *fiber.Ctx) error {
	org, ok, err := s.requireOrganisation(c)
	if !ok {
		return err
	}
	return c.JSON(s.store.Applications(org.Key()))
}

// emit handles POST /dev/emit: it records a new application for the seeded
// organisation and pushes the corresponding ws event, so a running monitor
// can be exercised by hand.
func (s *Server) emit(c *fiber.Ctx) error {
	var req struct {
		OrgUsername string `json:"org_username"`
		EventTitle  string `json:"event_title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return detailError(c, http.StatusBadRequest, "invalid payload")
	}
	if req.OrgUsername == "" {
		req.OrgUsername = "eko-pokret"
	}
	if req.EventTitle == "" {
		req.EventTitle = "Novi događaj"
	}

	org, ok := s.store.OrganisationByUsername(req.OrgUsername)
	if !ok {
		return detailError(c, http.StatusNotFound, "Organisation not found")
	}

	app := s.store.AddApplication(org.Key(), req.EventTitle, "volunteer")
	s.hub.Broadcast(org.Key(), realtime.Message{
		Type: realtime.MessageNewApplication,
		Data: map[string]any{
			"event_title":    app.EventTitle,
			"application_id": app.Key(),
		},
	})
	return c.Status(http.StatusCreated).JSON(app)
}

// notificationSocket authenticates the token query parameter and pumps the
// socket until the peer goes away. Bad tokens get close code 1008, which
// the client treats as terminal.
func (s *Server) notificationSocket(conn *websocket.Conn) {
	token := conn.Query("token")
	claims, err := s.tokens.ParseToken(token)
	if err != nil || claims.Role != "organisation" {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"), deadline)
		_ = conn.Close()
		return
	}

	org, ok := s.store.OrganisationByUsername(claims.Subject)
	if !ok {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown organisation"), deadline)
		_ = conn.Close()
		return
	}

	s.hub.Register(org.Key(), conn)
	defer s.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) bearerClaims(c *fiber.Ctx) (*Claims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil, fiber.ErrUnauthorized
	}
	return s.tokens.ParseToken(token)
}

// requireOrganisation resolves the bearer token to an organisation account.
// When it returns false the error response has already been written.
func (s *Server) requireOrganisation(c *fiber.Ctx) (domain.Organisation, bool, error) {
	claims, err := s.bearerClaims(c)
	if err != nil {
		return domain.Organisation{}, false, detailError(c, http.StatusUnauthorized, "Not authenticated")
	}
	org, ok := s.store.OrganisationByUsername(claims.Subject)
	if !ok {
		return domain.Organisation{}, false, detailError(c, http.StatusForbidden, "Organisation role required")
	}
	return org, true, nil
}

func detailError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"detail": message})
}
