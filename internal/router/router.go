package router

import (
	"time"

	"motorplus/internal/config"
	"motorplus/internal/handler"
	"motorplus/internal/middleware"
	"motorplus/internal/model"
	"motorplus/internal/repository"
	"motorplus/internal/service"
	"motorplus/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// A nil rdb disables async notifications.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimit, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	partRepo := repository.NewPartRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	mechanicRepo := repository.NewMechanicRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	supervisionRepo := repository.NewSupervisionRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Dispatcher enqueues post-commit notifications; it is a no-op without Redis.
	dispatcher := worker.NewDispatcher(rdb)
	pageSize := cfg.DefaultPageSize

	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(partRepo, dispatcher, cfg.LowStockThreshold, pageSize)
	orderSvc := service.NewOrderService(orderRepo, clientRepo, serviceRepo, mechanicRepo, partRepo, inventorySvc, pageSize)
	supervisionSvc := service.NewSupervisionService(supervisionRepo, orderRepo, mechanicRepo, pageSize)
	billingSvc := service.NewBillingService(invoiceRepo, orderRepo, clientRepo, dispatcher, cfg.InvoiceDueDays, pageSize)
	catalogSvc := service.NewCatalogService(serviceRepo, mechanicRepo, pageSize)
	clientSvc := service.NewClientService(clientRepo, vehicleRepo, orderRepo, pageSize)
	supplierSvc := service.NewSupplierService(supplierRepo, partRepo, pageSize)
	reportSvc := service.NewReportService(reportRepo, orderRepo, partRepo, invoiceRepo, cfg.LowStockThreshold, decimal.NewFromFloat(cfg.LaborHourCost).Round(2))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	partsH := handler.NewPartsHandler(inventorySvc)
	supervisionsH := handler.NewSupervisionsHandler(supervisionSvc)
	invoicesH := handler.NewInvoicesHandler(billingSvc, cfg.WorkshopName)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	clientsH := handler.NewClientsHandler(clientSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	admin := middleware.RequireRole(model.RoleAdmin)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/change-password", jwtMW, authH.ChangePassword)
	}

	api := r.Group("/api", jwtMW)
	{
		orders := api.Group("/orders")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id", ordersH.Update)
			orders.DELETE("/:id", ordersH.Delete)
			orders.POST("/:id/status", ordersH.ChangeStatus)

			orders.GET("/:id/items", ordersH.ListItems)
			orders.POST("/:id/items", ordersH.AddItem)
			orders.GET("/:id/items/:itemId", ordersH.GetItem)
			orders.PATCH("/:id/items/:itemId", ordersH.UpdateItem)
			orders.DELETE("/:id/items/:itemId", ordersH.RemoveItem)

			orders.GET("/:id/items/:itemId/assignments", ordersH.ListAssignments)
			orders.POST("/:id/items/:itemId/assignments", ordersH.AddAssignment)
			orders.PATCH("/:id/items/:itemId/assignments/:mechanicId", ordersH.UpdateAssignment)
			orders.DELETE("/:id/items/:itemId/assignments/:mechanicId", ordersH.RemoveAssignment)

			orders.GET("/:id/items/:itemId/parts", ordersH.ListPartUsages)
			orders.POST("/:id/items/:itemId/parts", ordersH.AddPartUsage)
			orders.PATCH("/:id/items/:itemId/parts/:partId", ordersH.UpdatePartUsage)
			orders.DELETE("/:id/items/:itemId/parts/:partId", ordersH.RemovePartUsage)
		}

		// Parts: everyone reads and records movements, admins edit the catalog.
		parts := api.Group("/parts")
		{
			parts.GET("", partsH.List)
			parts.GET("/:id", partsH.Get)
			parts.GET("/:id/stock", partsH.Stock)
			parts.GET("/:id/movements", partsH.ListMovements)
			parts.POST("/:id/movements", partsH.RecordMovement)
			parts.POST("", admin, partsH.Create)
			parts.PATCH("/:id", admin, partsH.Update)
			parts.PUT("/:id", admin, partsH.Update)
			parts.PATCH("/:id/active", admin, partsH.SetActive)
			parts.DELETE("/:id", admin, partsH.Delete)
		}

		supervisions := api.Group("/supervisions")
		{
			supervisions.GET("", supervisionsH.List)
			supervisions.POST("", supervisionsH.Create)
			supervisions.DELETE("", supervisionsH.Delete)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("/from-order/:orderId", invoicesH.FromOrder)
			invoices.GET("", invoicesH.List)
			invoices.GET("/:id", invoicesH.Get)
			invoices.PATCH("/:id", invoicesH.Update)
			invoices.DELETE("/:id", invoicesH.Delete)
			invoices.GET("/:id/lines", invoicesH.Lines)
			invoices.POST("/:id/lines", invoicesH.AddLine)
			invoices.PATCH("/:id/lines/:type/:refId", invoicesH.UpdateLine)
			invoices.DELETE("/:id/lines/:type/:refId", invoicesH.RemoveLine)
			invoices.GET("/:id/pdf", invoicesH.PDF)
			invoices.GET("/:id/payments", invoicesH.ListPayments)
			invoices.POST("/:id/payments", invoicesH.AddPayment)
			invoices.DELETE("/:id/payments/:paymentId", invoicesH.RemovePayment)
		}

		clients := api.Group("/clients")
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PATCH("/:id", clientsH.Update)
			clients.PUT("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Delete)
			clients.GET("/:id/vehicles", clientsH.ListVehicles)
			clients.POST("/:id/vehicles", clientsH.AddVehicle)
		}

		vehicles := api.Group("/vehicles")
		{
			vehicles.POST("", clientsH.CreateVehicle)
			vehicles.GET("", clientsH.ListAllVehicles)
			vehicles.GET("/:plate", clientsH.GetVehicle)
			vehicles.PATCH("/:plate", clientsH.UpdateVehicle)
			vehicles.PUT("/:plate", clientsH.UpdateVehicle)
			vehicles.DELETE("/:plate", clientsH.DeleteVehicle)
			vehicles.GET("/:plate/orders", clientsH.VehicleOrders)
			vehicles.GET("/:plate/history", clientsH.VehicleHistory)
		}

		services := api.Group("/services")
		{
			services.GET("", catalogH.ListServices)
			services.GET("/:id", catalogH.GetService)
			services.POST("", admin, catalogH.CreateService)
			services.PATCH("/:id", admin, catalogH.UpdateService)
			services.PUT("/:id", admin, catalogH.UpdateService)
			services.PATCH("/:id/active", admin, catalogH.SetServiceActive)
			services.DELETE("/:id", admin, catalogH.DeleteService)
		}

		mechanics := api.Group("/mechanics")
		{
			mechanics.GET("", catalogH.ListMechanics)
			mechanics.GET("/:id", catalogH.GetMechanic)
			mechanics.POST("", admin, catalogH.CreateMechanic)
			mechanics.PATCH("/:id", admin, catalogH.UpdateMechanic)
			mechanics.PUT("/:id", admin, catalogH.UpdateMechanic)
			mechanics.PATCH("/:id/active", admin, catalogH.SetMechanicActive)
			mechanics.DELETE("/:id", admin, catalogH.DeleteMechanic)
		}

		suppliers := api.Group("/suppliers", admin)
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PATCH("/:id", suppliersH.Update)
			suppliers.DELETE("/:id", suppliersH.Delete)
			suppliers.GET("/:id/parts", suppliersH.ListParts)
			suppliers.POST("/:id/parts", suppliersH.AddPart)
			suppliers.PATCH("/:id/parts/:partId", suppliersH.UpdatePart)
			suppliers.DELETE("/:id/parts/:partId", suppliersH.RemovePart)
		}

		api.GET("/reports", reportsH.Kinds)
		api.GET("/reports/:kind", reportsH.Render)

		users := api.Group("/users", admin)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PATCH("/:id/active", usersH.SetActive)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
