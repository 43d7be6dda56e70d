package rest

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"medibook/config"
	"medibook/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
}

func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())
	router.Use(h.corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.PUT("/me", h.updateCurrentUser)
			users.PUT("/me/password", h.updatePassword)

			admin := users.Group("/")
			admin.Use(h.adminMiddleware())
			{
				admin.GET("/", h.getUsers)
				admin.GET("/:id", h.getUserByID)
			}
		}

		doctors := api.Group("/doctors")
		{
			doctors.GET("/", h.getDoctors)
			doctors.GET("/me", h.authMiddleware(), h.doctorMiddleware(), h.getMyDoctorProfile)
			doctors.GET("/:id", h.getDoctorByID)
			doctors.GET("/:id/slots", h.getDoctorSlots)
			doctors.GET("/:id/reviews", h.getDoctorReviews)

			auth := doctors.Group("/", h.authMiddleware())
			{
				doctorOnly := auth.Group("/", h.doctorMiddleware())
				{
					doctorOnly.POST("/", h.createDoctorProfile)
					doctorOnly.PUT("/me", h.updateDoctorProfile)
					doctorOnly.POST("/me/photo", h.uploadDoctorPhoto)
					doctorOnly.DELETE("/me/photo", h.deleteDoctorPhoto)
				}

				auth.PUT("/:id/verify", h.adminMiddleware(), h.verifyDoctor)
			}
		}

		schedules := api.Group("/schedules")
		schedules.Use(h.authMiddleware(), h.doctorMiddleware())
		{
			schedules.GET("/me", h.getMySchedule)
			schedules.PUT("/me", h.updateMySchedule)
		}

		appointments := api.Group("/appointments")
		appointments.Use(h.authMiddleware())
		{
			appointments.POST("/", h.createAppointment)
			appointments.GET("/", h.getAppointments)
			appointments.GET("/:id", h.getAppointmentByID)
			appointments.PUT("/:id/status", h.doctorMiddleware(), h.updateAppointmentStatus)
			appointments.DELETE("/:id", h.cancelAppointment)
			appointments.GET("/:id/prescription", h.getAppointmentPrescription)
		}

		prescriptions := api.Group("/prescriptions")
		prescriptions.Use(h.authMiddleware())
		{
			prescriptions.GET("/", h.getPrescriptions)
			prescriptions.GET("/:id", h.getPrescriptionByID)
		}

		reviews := api.Group("/reviews")
		reviews.Use(h.authMiddleware())
		{
			reviews.POST("/", h.createReview)
			reviews.DELETE("/:id", h.deleteReview)
		}
	}
}
