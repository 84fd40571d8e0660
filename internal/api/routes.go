package api

import (
	"github.com/gin-gonic/gin"

	"makelaardij/server/internal/auth"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	requireAuth := auth.RequireAuth(handler.tokens, handler.users)
	optionalAuth := auth.OptionalAuth(handler.tokens, handler.users)
	requireAdmin := auth.RequireAdmin(handler.config.Auth.AdminToken)

	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)

		api.GET("/properties", handler.GetProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.POST("/properties/search", handler.SearchProperties)

		api.POST("/contact", handler.SubmitContact)
		api.POST("/schedule", handler.ScheduleAppointment)

		api.GET("/market-reports", handler.GetMarketReports)
		api.GET("/market-reports/:id", handler.GetMarketReport)
		api.POST("/market-reports/:id/download", handler.TrackReportDownload)
	}

	admin := api.Group("", requireAdmin)
	{
		admin.POST("/properties", handler.CreateProperty)
		admin.PUT("/properties/:id", handler.UpdateProperty)
		admin.DELETE("/properties/:id", handler.DeleteProperty)
		admin.POST("/properties/geocode", handler.UpdateCoordinates)

		admin.GET("/contact", handler.GetContacts)
		admin.GET("/contact/export", handler.ExportContacts)
		admin.POST("/contact/test-email", handler.TestEmail)

		admin.POST("/market-reports", handler.CreateMarketReport)
		admin.PUT("/market-reports/:id", handler.UpdateMarketReport)
		admin.DELETE("/market-reports/:id", handler.DeleteMarketReport)
	}

	users := api.Group("/users")
	{
		users.POST("/register", handler.Register)
		users.POST("/verify-email", handler.VerifyEmail)
		users.POST("/resend-verification", handler.ResendVerification)
		users.POST("/login", handler.Login)
		users.POST("/refresh", handler.Refresh)
		users.POST("/forgot-password", handler.ForgotPassword)
		users.POST("/reset-password", handler.ResetPassword)

		users.POST("/property-view", optionalAuth, handler.TrackPropertyView)
	}

	account := users.Group("", requireAuth)
	{
		account.POST("/logout", handler.Logout)

		account.GET("/profile", handler.GetProfile)
		account.PUT("/profile", handler.UpdateProfile)
		account.PUT("/change-password", handler.ChangePassword)

		account.GET("/saved-properties", handler.GetSavedProperties)
		account.POST("/saved-properties", handler.SaveProperty)
		account.DELETE("/saved-properties/:property_id", handler.RemoveSavedProperty)

		account.GET("/saved-searches", handler.GetSavedSearches)
		account.POST("/saved-searches", handler.CreateSavedSearch)
		account.PUT("/saved-searches/:id", handler.UpdateSavedSearch)
		account.DELETE("/saved-searches/:id", handler.DeleteSavedSearch)
		account.GET("/saved-searches/:id/results", handler.GetSavedSearchResults)

		account.GET("/analytics/property-views", handler.GetPropertyViewStats)
	}
}
