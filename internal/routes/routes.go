package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/handlers"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/salon-scheduler/internal/usecase/appointment"
	ucLoyalty "github.com/BruksfildServices01/salon-scheduler/internal/usecase/loyalty"
	ucPayment "github.com/BruksfildServices01/salon-scheduler/internal/usecase/payment"
)

// Store is everything the HTTP surface persists through. Both the gorm
// repository and the in-memory store satisfy it.
type Store interface {
	domain.Repository
	audit.Store
	handlers.UserStore
}

// Infra carries the shared singletons built by main.
type Infra struct {
	Audit     *audit.Dispatcher
	Metrics   *metrics.Metrics
	Publisher notify.Publisher
}

func RegisterRoutes(r *gin.Engine, store Store, infra Infra, cfg *config.Config) {

	minAdvance := time.Duration(cfg.MinAdvanceMinutes) * time.Minute

	// ======================================================
	// 🧠 USE CASES - APPOINTMENTS
	// ======================================================
	reserveUC := ucAppointment.NewCheckAndReserve(
		store,
		infra.Audit,
		infra.Metrics,
		minAdvance,
	)

	bookPublicUC := ucAppointment.NewBookPublic(store, reserveUC)

	completeUC := ucAppointment.NewCompleteAppointment(
		store,
		infra.Audit,
		infra.Metrics,
		infra.Publisher,
	)

	changeStatusUC := ucAppointment.NewChangeStatus(store, infra.Audit)
	listUC := ucAppointment.NewListAppointments(store)
	availabilityUC := ucAppointment.NewGetAvailability(store, cfg.SlotStepMinutes)

	// ======================================================
	// 🧠 USE CASES - PAYMENT / LOYALTY
	// ======================================================
	recordPaymentUC := ucPayment.NewRecordPayment(
		store,
		infra.Audit,
		infra.Metrics,
		infra.Publisher,
	)
	reversePaymentUC := ucPayment.NewReversePayment(store, infra.Audit, infra.Metrics)

	registerClientUC := ucLoyalty.NewRegisterClient(store, infra.Audit, infra.Metrics)
	birthdaysUC := ucLoyalty.NewGrantBirthdayDiscounts(
		store,
		infra.Audit,
		infra.Metrics,
		infra.Publisher,
	)
	expireUC := ucLoyalty.NewExpireDiscount(store, infra.Audit, infra.Metrics)
	clientLoyaltyUC := ucLoyalty.NewGetClientLoyalty(store)
	historyUC := ucLoyalty.NewListHistory(store)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(store, cfg)
	serviceHandler := handlers.NewServiceHandler(store, infra.Audit)
	workingHoursHandler := handlers.NewWorkingHoursHandler(store, infra.Audit)
	clientHandler := handlers.NewClientHandler(store, clientLoyaltyUC)

	appointmentHandler := handlers.NewAppointmentHandler(
		reserveUC,
		completeUC,
		changeStatusUC,
		listUC,
		recordPaymentUC,
		reversePaymentUC,
	)

	loyaltyHandler := handlers.NewLoyaltyHandler(expireUC, birthdaysUC, historyUC)
	auditLogsHandler := handlers.NewAuditLogsHandler(store)

	publicHandler := handlers.NewPublicHandler(
		store,
		availabilityUC,
		bookPublicUC,
		registerClientUC,
	)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🌐 API PÚBLICA
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/services", publicHandler.ListServices)
			publicAPI.GET("/availability", publicHandler.Availability)
			publicAPI.POST("/appointments", publicHandler.CreateAppointment)
			publicAPI.POST("/clients", publicHandler.Signup)
		}

		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/me")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			ownerOnly := middleware.RequireRole(handlers.RoleOwner)

			secured.GET("/services", serviceHandler.List)
			secured.POST("/services", ownerOnly, serviceHandler.Create)
			secured.PATCH("/services/:id", ownerOnly, serviceHandler.Update)

			secured.GET("/working-hours", workingHoursHandler.Get)
			secured.PUT("/working-hours", ownerOnly, workingHoursHandler.Update)

			secured.GET("/blocked-slots", workingHoursHandler.ListBlocked)
			secured.POST("/blocked-slots", workingHoursHandler.CreateBlocked)
			secured.DELETE("/blocked-slots/:id", workingHoursHandler.DeleteBlocked)

			secured.GET("/clients", clientHandler.List)
			secured.GET("/clients/:id/loyalty", clientHandler.Loyalty)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.ListByDate)
			secured.GET("/appointments/month", appointmentHandler.ListByMonth)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/no-show", appointmentHandler.NoShow)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)
			secured.POST("/appointments/:id/payment", appointmentHandler.RecordPayment)
			secured.DELETE("/appointments/:id/payment", appointmentHandler.ReversePayment)

			// ------------------------------
			// LOYALTY
			// ------------------------------
			secured.PATCH("/discounts/:id/expire", loyaltyHandler.ExpireDiscount)
			secured.POST("/loyalty/birthdays", loyaltyHandler.GrantBirthdays)
			secured.GET("/loyalty/history", loyaltyHandler.History)

			secured.GET("/audit-logs", ownerOnly, auditLogsHandler.List)
		}
	}
}
