package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/raffle-hub/raffle-api/docs"
	v1 "github.com/raffle-hub/raffle-api/internal/api/handler/v1"
	"github.com/raffle-hub/raffle-api/internal/api/middleware"
	"github.com/raffle-hub/raffle-api/internal/config"
	"github.com/raffle-hub/raffle-api/internal/events"
	"github.com/raffle-hub/raffle-api/internal/pkg/mercadopago"
	"github.com/raffle-hub/raffle-api/internal/pkg/sandboxpay"
	"github.com/raffle-hub/raffle-api/internal/pkg/stripepay"
	"github.com/raffle-hub/raffle-api/internal/repository"
	"github.com/raffle-hub/raffle-api/internal/repository/cache"
	"github.com/raffle-hub/raffle-api/internal/repository/dao"
	"github.com/raffle-hub/raffle-api/internal/service"
)

const basePath = "/api/v1"

const developmentEnv = "development"

var (
	errUnknownProvider = errors.New("unknown payment provider")
	errSandboxProvider = errors.New("the sandbox payment provider only runs in development")
)

type Server struct {
	Config  *config.AppConfig
	Router  *gin.Engine
	Hub     *events.Hub
	Sweeper *service.ExpirySweeper

	broker *events.AMQPPublisher
}

// NewServer wires every handler. redisClient may be nil, in which case payment
// notifications are not de-duplicated.
func NewServer(conf *config.AppConfig, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Hub:    events.NewHub(),
	}

	gateway, err := newPaymentGateway(conf.Payment, conf.API.Environment)
	if err != nil {
		return nil, fmt.Errorf("newPaymentGateway -> %w", err)
	}

	publisher := events.Fanout{s.Hub}
	if conf.AMQP.URL != "" {
		s.broker = events.NewAMQPPublisher(conf.AMQP.URL, conf.AMQP.Queue)
		publisher = append(publisher, s.broker)
	}

	tickets := repository.NewTicketRepository(dao.NewTicketDAO(db))
	users := repository.NewUserRepository(dao.NewUserDAO(db))

	s.Sweeper = service.NewExpirySweeper(tickets, gateway,
		service.WithSweepInterval(conf.Reservation.SweepInterval),
		service.WithGracePeriod(conf.Reservation.GracePeriod),
		service.WithSweeperEvents(publisher),
	)

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(users)
	userHandler := s.initUserHandler(users)
	ticketHandler, ticketSvc := s.initTicketHandler(tickets)
	purchaseHandler := s.initPurchaseHandler(tickets, users, gateway, publisher, redisClient)
	feedHandler := v1.NewFeedHandler(s.Hub, ticketSvc, conf.API.AllowedCORSDomains)
	s.MountHandlers(authHandler, userHandler, ticketHandler, purchaseHandler, feedHandler)
	if sandbox, ok := gateway.(*sandboxpay.Gateway); ok {
		s.MountSandbox(v1.NewSandboxHandler(sandbox))
	}

	return s, nil
}

// newPaymentGateway builds the configured provider. Sandbox payments never settle on
// their own, so outside development a real provider must be configured.
func newPaymentGateway(conf *config.PaymentConfig, environment string) (service.PaymentGateway, error) {
	switch conf.Provider {
	case "mercadopago":
		client, err := mercadopago.NewClient(mercadopago.Config{
			AccessToken:     conf.AccessToken,
			NotificationURL: conf.NotificationURL,
			Timeout:         10 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("mercadopago.NewClient -> %w", err)
		}
		return client, nil
	case "stripe":
		return stripepay.NewClient(stripepay.Config{
			SecretKey: conf.AccessToken,
			Currency:  conf.Currency,
			BaseURL:   conf.BaseURL,
		}), nil
	case "sandbox", "":
		if environment != developmentEnv {
			return nil, fmt.Errorf("%w: environment is %q", errSandboxProvider, environment)
		}
		return sandboxpay.NewGateway(), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownProvider, conf.Provider)
	}
}

func (s *Server) initAuthHandler(users *repository.UserRepository) *v1.AuthHandler {
	svc := service.NewAuthService(users, s.Config.API.AdminSecret)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(users *repository.UserRepository) *v1.UserHandler {
	svc := service.NewUserService(users)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initTicketHandler(tickets *repository.TicketRepository) (*v1.TicketHandler, *service.TicketService) {
	svc := service.NewTicketService(tickets, nil)
	handler := v1.NewTicketHandler(svc)

	return handler, svc
}

func (s *Server) initPurchaseHandler(
	tickets *repository.TicketRepository,
	users *repository.UserRepository,
	gateway service.PaymentGateway,
	publisher events.Publisher,
	redisClient *redis.Client,
) *v1.PurchaseHandler {
	purchases := service.NewPurchaseService(tickets, users, gateway,
		service.WithExpiration(s.Config.Payment.Expiration),
		service.WithPurchaseEvents(publisher),
	)

	opts := []service.ConfirmationOption{service.WithConfirmationEvents(publisher)}
	if redisClient != nil {
		opts = append(opts, service.WithNotificationGuard(cache.NewNotificationGuard(redisClient, s.Config.Redis.NotificationTTL)))
	}
	confirmations := service.NewConfirmationService(tickets, gateway, opts...)

	return v1.NewPurchaseHandler(purchases, confirmations)
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	ticketHandler *v1.TicketHandler,
	purchaseHandler *v1.PurchaseHandler,
	feedHandler *v1.FeedHandler,
) {
	authenticator := middleware.NewAuthenticator(s.Config.API.JWTSigningKey)

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		public.POST("/user/admin", authHandler.HandleAdminSignup)

		public.GET("/ticket", ticketHandler.HandleGetTickets)
		public.GET("/ticket/:ticketID", ticketHandler.HandleGetTicket)
		public.GET("/ticket/:ticketID/feed", feedHandler.HandleFeed)
		public.POST("/ticket/notify-payment", purchaseHandler.HandleNotifyPayment)
		public.POST("/ticket/notify-payment/:ticketID", purchaseHandler.HandleNotifyPayment)
	}

	users := s.Router.Group(basePath, authenticator.VerifyJWT())
	{
		users.GET("/user/:userID", userHandler.HandleGetUser)
		users.PUT("/user/:userID", userHandler.HandleUpdateUser)
		users.DELETE("/user/:userID", userHandler.HandleDeleteUser)

		users.POST("/ticket/:ticketID/buy-quota", purchaseHandler.HandleBuyQuota)
	}

	admin := s.Router.Group(basePath, authenticator.VerifyJWT(), authenticator.RequireAdmin())
	{
		admin.GET("/user", userHandler.HandleGetUsers)

		admin.POST("/ticket", ticketHandler.HandleCreateTicket)
		admin.PUT("/ticket/:ticketID", ticketHandler.HandleUpdateTicket)
		admin.DELETE("/ticket/:ticketID", ticketHandler.HandleDeleteTicket)
		admin.POST("/ticket/:ticketID/add-prize", ticketHandler.HandleAddPrize)
		admin.DELETE("/ticket/:ticketID/remove-prize/:prizeID", ticketHandler.HandleRemovePrize)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Raffle API"
	docs.SwaggerInfo.Description = "Raffle tickets, quota reservations and payment confirmation."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}

// MountSandbox exposes the sandbox gateway so local runs can settle payments.
func (s *Server) MountSandbox(sandboxHandler *v1.SandboxHandler) {
	sandbox := s.Router.Group(basePath + "/sandbox")
	{
		sandbox.POST("/payments/:paymentID/status", sandboxHandler.HandleSetPaymentStatus)
	}
}

// Close releases the broker connection, if any.
func (s *Server) Close() error {
	if s.broker == nil {
		return nil
	}

	return s.broker.Close()
}
