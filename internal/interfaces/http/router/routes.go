package router

import (
	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/handler"
)

// Handlers bundles the storefront handlers mounted under the API prefix
type Handlers struct {
	System   *handler.SystemHandler
	Auth     *handler.AuthHandler
	Profile  *handler.ProfileHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Booking  *handler.BookingHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Contact  *handler.ContactHandler
	Donation *handler.DonationHandler
}

// Guards are the per-route access middlewares
type Guards struct {
	// RequireAuth rejects anonymous callers
	RequireAuth gin.HandlerFunc
	// OptionalAuth identifies the caller when a token is present
	OptionalAuth gin.HandlerFunc
	// RequireStaff must follow RequireAuth
	RequireStaff gin.HandlerFunc
	// AuthRateLimit throttles credential endpoints; optional
	AuthRateLimit gin.HandlerFunc
	// ContactRateLimit throttles the contact form; optional
	ContactRateLimit gin.HandlerFunc
}

// DomainGroups builds the storefront's route groups
func DomainGroups(h Handlers, g Guards) []*DomainGroup {
	health := NewDomainGroup("health", "/health").
		GET("/live", h.System.Live).
		GET("/ready", h.System.Ready)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.Group("credentials", "").
		Use(g.AuthRateLimit, g.OptionalAuth).
		POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.RefreshToken)
	authGroup.Group("session", "").
		Use(g.OptionalAuth).
		GET("/me", h.Auth.Me)
	authGroup.Group("logout", "").
		Use(g.RequireAuth).
		POST("/logout", h.Auth.Logout)

	profile := NewDomainGroup("profile", "/profile").
		Use(g.RequireAuth).
		GET("", h.Profile.Get).
		PUT("", h.Profile.Update).
		PUT("/password", h.Profile.ChangePassword)

	products := NewDomainGroup("products", "/products").
		GET("", h.Product.List).
		GET("/categories", h.Product.Categories).
		GET("/:id", h.Product.Get)

	cart := NewDomainGroup("cart", "/cart").
		Use(g.OptionalAuth).
		GET("", h.Cart.Get).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:id", h.Cart.UpdateItem).
		DELETE("/items/:id", h.Cart.RemoveItem)

	services := NewDomainGroup("services", "/services").
		Use(g.OptionalAuth).
		GET("", h.Booking.ListServices).
		GET("/:slug", h.Booking.GetService).
		GET("/:slug/slots", h.Booking.ListSlots)

	bookings := NewDomainGroup("bookings", "/bookings")
	bookings.Group("book", "").
		Use(g.OptionalAuth).
		POST("", h.Booking.CreateBooking)
	bookings.Group("mine", "").
		Use(g.RequireAuth).
		GET("", h.Booking.ListMyBookings).
		GET("/:id", h.Booking.GetBooking).
		POST("/:id/pay", h.Payment.PayBooking)

	checkout := NewDomainGroup("checkout", "/checkout").
		Use(g.OptionalAuth).
		POST("", h.Order.Checkout)

	orders := NewDomainGroup("orders", "/orders").
		Use(g.RequireAuth).
		GET("", h.Order.ListMine).
		GET("/:id", h.Order.Get).
		POST("/:id/cancel", h.Order.Cancel).
		POST("/:id/pay", h.Payment.PayOrder).
		GET("/:id/receipt", h.Order.Receipt)

	payments := NewDomainGroup("payments", "/payments").
		Use(g.OptionalAuth).
		GET("/return", h.Payment.Return).
		POST("/return", h.Payment.Return).
		POST("/intents", h.Payment.CreateIntent).
		GET("/intents/:id", h.Payment.Get).
		POST("/intents/:id/cancel", h.Payment.Cancel)

	contact := NewDomainGroup("contact", "/contact").
		Use(g.ContactRateLimit).
		POST("", h.Contact.Submit)

	donations := NewDomainGroup("donations", "/donations").
		GET("", h.Donation.List)

	admin := NewDomainGroup("admin", "/admin").
		Use(g.RequireAuth, g.RequireStaff)
	admin.Group("products", "/products").
		GET("", h.Product.AdminList).
		POST("", h.Product.Create).
		PUT("/:id", h.Product.Update).
		POST("/:id/activate", h.Product.Activate).
		POST("/:id/deactivate", h.Product.Deactivate)
	admin.Group("uploads", "/uploads").
		POST("", h.Product.RequestUpload)
	admin.Group("services", "/services").
		GET("", h.Booking.AdminListServices).
		POST("", h.Booking.CreateService).
		PUT("/:id", h.Booking.UpdateService).
		POST("/:id/slots", h.Booking.CreateSlot)
	admin.Group("slots", "/slots").
		POST("/:id/deactivate", h.Booking.DeactivateSlot)
	admin.Group("bookings", "/bookings").
		PUT("/:id/status", h.Booking.ChangeBookingStatus)
	admin.Group("contact", "/contact-messages").
		GET("", h.Contact.ListMessages).
		POST("/:id/handled", h.Contact.MarkHandled)

	return []*DomainGroup{
		health, system, authGroup, profile, products, cart, services,
		bookings, checkout, orders, payments, contact, donations, admin,
	}
}

// Mount registers the storefront routes on r and returns them
func Mount(r *Router, h Handlers, g Guards) []RouteInfo {
	var routes []RouteInfo
	for _, group := range DomainGroups(h, g) {
		r.Register(group)
		routes = append(routes, group.Routes(r.BasePath())...)
	}
	r.Setup()
	return routes
}
