package router

import (
	"net/http"
	"time"

	"splitkar/config"
	"splitkar/internal/handler"
	"splitkar/internal/middleware"
	"splitkar/internal/repository"
	"splitkar/internal/service"
	"splitkar/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	friendSvc := service.NewFriendService(userRepo, friendRepo)
	groupSvc := service.NewGroupService(userRepo, groupRepo)
	balanceSvc := service.NewBalanceService(db, balanceRepo, expenseRepo, settlementRepo)
	expenseSvc := service.NewExpenseService(db, userRepo, friendRepo, groupRepo, categoryRepo,
		expenseRepo, balanceSvc, cfg.Split.RoundingPolicy)
	settlementSvc := service.NewSettlementService(db, userRepo, groupRepo, expenseRepo, settlementRepo, balanceSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(userRepo, cloud)
	friendHandler := handler.NewFriendHandler(friendSvc)
	groupHandler := handler.NewGroupHandler(groupSvc, expenseSvc)
	categoryHandler := handler.NewCategoryHandler(categoryRepo)
	expenseHandler := handler.NewExpenseHandler(expenseSvc)
	settlementHandler := handler.NewSettlementHandler(settlementSvc)
	balanceHandler := handler.NewBalanceHandler(balanceSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/profile", meHandler.UpdateProfile)
			me.POST("/profile/picture", meHandler.UploadPicture)
		}

		friends := api.Group("/friends")
		friends.Use(authMw)
		{
			friends.GET("", friendHandler.List)
			friends.DELETE("/:user_id", friendHandler.Unfriend)
			friends.POST("/requests", friendHandler.SendRequest)
			friends.GET("/requests", friendHandler.PendingRequests)
			friends.POST("/requests/:id/accept", friendHandler.Accept)
			friends.POST("/requests/:id/decline", friendHandler.Decline)
		}

		groups := api.Group("/groups")
		groups.Use(authMw)
		{
			groups.POST("", groupHandler.Create)
			groups.GET("", groupHandler.List)
			groups.GET("/:id", groupHandler.Get)
			groups.POST("/:id/invitations", groupHandler.Invite)
			groups.GET("/:id/expenses", groupHandler.Expenses)
		}
		invitations := api.Group("/invitations")
		invitations.Use(authMw)
		{
			invitations.GET("", groupHandler.PendingInvitations)
			invitations.POST("/:id/accept", groupHandler.AcceptInvitation)
			invitations.POST("/:id/decline", groupHandler.DeclineInvitation)
		}

		api.GET("/categories", authMw, categoryHandler.List)

		expenses := api.Group("/expenses")
		expenses.Use(authMw)
		{
			expenses.POST("", expenseHandler.Create)
			expenses.GET("", expenseHandler.List)
			expenses.GET("/between/:user_id", expenseHandler.Between)
			expenses.GET("/:expense_id", expenseHandler.Get)
			expenses.PATCH("/:expense_id", expenseHandler.Edit)
			expenses.DELETE("/:expense_id", expenseHandler.Delete)
		}

		settlements := api.Group("/settlements")
		settlements.Use(authMw)
		{
			settlements.POST("", settlementHandler.Create)
			settlements.DELETE("/:settlement_id", settlementHandler.Delete)
		}

		balances := api.Group("/balances")
		balances.Use(authMw)
		{
			balances.GET("", balanceHandler.List)
			balances.POST("/recalculate", balanceHandler.Recalculate)
			balances.GET("/:user_id", balanceHandler.Get)
			balances.GET("/:user_id/total", balanceHandler.Total)
		}
	}

	return r
}
