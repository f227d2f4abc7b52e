package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitrina/docs" //this is required to generate swagger docs
	"vitrina/internal/auth"
	"vitrina/internal/cache"
	"vitrina/internal/config"
	"vitrina/internal/domain/billing"
	"vitrina/internal/domain/catalog"
	"vitrina/internal/domain/users"
	"vitrina/internal/mailer"
	"vitrina/internal/payments"
	"vitrina/internal/ratelimiter"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/speps/go-hashids/v2"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        *config.Config
	logger        *zap.SugaredLogger
	users         users.Store
	billing       billing.Store
	catalog       *catalog.Service
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	payments      *payments.Manager
	storeCache    *cache.StorefrontCache
	refHasher     *hashids.HashID
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.Server.Addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.Post("/forgot-password", app.forgotPasswordHandler)
			r.Post("/reset-password", app.resetPasswordHandler)
		})

		r.Put("/users/activate/{token}", app.activateUserHandler)
		r.Get("/users/username-available", app.usernameAvailableHandler)

		r.Get("/plans", app.listPlansHandler)
		r.Get("/storefront/{username}/{catalogSlug}", app.publicCatalogHandler)

		// Merchant routes
		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getProfileHandler)
			r.Patch("/me", app.updateProfileHandler)
			r.Post("/me/logo", app.uploadProfileLogoHandler)
			r.Put("/me/password", app.changePasswordHandler)
			r.Post("/logout", app.logoutHandler)
		})

		r.Route("/admin/catalogs", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Post("/", app.createCatalogHandler)
			r.Get("/", app.listCatalogsHandler)

			r.Route("/{catalogID}", func(r chi.Router) {
				r.Get("/", app.getCatalogHandler)
				r.Patch("/", app.updateCatalogHandler)
				r.Delete("/", app.deleteCatalogHandler)
				r.Put("/publish", app.publishCatalogHandler)

				r.Route("/categories", func(r chi.Router) {
					r.Post("/", app.createCategoryHandler)
					r.Get("/", app.listCategoriesHandler)
					r.Put("/reorder", app.reorderCategoriesHandler)
					r.Patch("/{categoryID}", app.updateCategoryHandler)
					r.Delete("/{categoryID}", app.deleteCategoryHandler)
				})

				r.Route("/brands", func(r chi.Router) {
					r.Post("/", app.createBrandHandler)
					r.Get("/", app.listBrandsHandler)
					r.Patch("/{brandID}", app.updateBrandHandler)
					r.Delete("/{brandID}", app.deleteBrandHandler)
					r.Post("/{brandID}/logo", app.uploadBrandLogoHandler)
				})

				r.Route("/products", func(r chi.Router) {
					r.Post("/", app.createProductHandler)
					r.Get("/", app.listProductsHandler)
					r.Put("/reorder", app.reorderProductsHandler)

					r.Route("/{productID}", func(r chi.Router) {
						r.Get("/", app.getProductHandler)
						r.Patch("/", app.updateProductHandler)
						r.Delete("/", app.deleteProductHandler)
						r.Put("/visibility", app.setProductVisibilityHandler)

						r.Route("/images", func(r chi.Router) {
							r.Post("/", app.uploadProductImageHandler)
							r.Get("/", app.listProductImagesHandler)
							r.Put("/{imageID}/primary", app.setPrimaryImageHandler)
							r.Delete("/{imageID}", app.deleteProductImageHandler)
						})
					})
				})
			})
		})

		r.Route("/billing", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/subscription", app.getSubscriptionHandler)
			r.Post("/checkout-session", app.createCheckoutSessionHandler)
			r.Post("/finalize", app.finalizeCheckoutHandler)
			r.Post("/cancel", app.cancelSubscriptionHandler)
		})
	})

	// Root alias for shareable storefront links.
	r.Get("/{username}/{catalogSlug}", app.publicCatalogHandler)

	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.Server.APIURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.Server.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Server.Addr, "env", app.config.Server.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Server.Addr, "env", app.config.Server.Env)

	return nil
}
