package site

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mediamind-ai/mediamind/pkg/audit"
	"github.com/mediamind-ai/mediamind/pkg/auth"
	"github.com/mediamind-ai/mediamind/pkg/config"
	"github.com/mediamind-ai/mediamind/pkg/database"
	"github.com/mediamind-ai/mediamind/pkg/encryption"
	"github.com/mediamind-ai/mediamind/pkg/foundation"
	"github.com/mediamind-ai/mediamind/pkg/logging"
	"github.com/mediamind-ai/mediamind/pkg/routing"
	"github.com/mediamind-ai/mediamind/pkg/server/middleware"
	"github.com/mediamind-ai/mediamind/pkg/view"
	"github.com/mediamind-ai/mediamind/resources"
)

// Settings returns the typed settings registered by AppServiceProvider
func Settings(app *foundation.Application) (*config.Settings, error) {
	return foundation.Resolve[*config.Settings](app.Container, foundation.ServiceSettings)
}

// AppServiceProvider loads the configuration and registers the logger,
// router and view factory
type AppServiceProvider struct {
	foundation.BaseProvider
}

func (p *AppServiceProvider) Register(app *foundation.Application) error {
	settings, err := Settings(app)
	if err != nil {
		cfg := app.Config()
		cfg.UseCache(app.ConfigCachePath())
		if err := cfg.Load(); err != nil {
			return err
		}
		if settings, err = cfg.Settings(); err != nil {
			return err
		}
		app.Instance(foundation.ServiceSettings, settings)
	}

	singleton(app, foundation.ServiceLogger, func(*foundation.Container) (interface{}, error) {
		ls := settings.Logging
		if ls.Channel == logging.ChannelFile && !filepath.IsAbs(ls.Path) {
			ls.Path = app.BasePath(ls.Path)
		}
		return logging.New(ls)
	})
	singleton(app, foundation.ServiceRouter, func(*foundation.Container) (interface{}, error) {
		return routing.NewRouter(), nil
	})
	singleton(app, foundation.ServiceView, func(*foundation.Container) (interface{}, error) {
		finder := view.NewFinder(resources.Views, []string{"views"}, nil)
		if len(settings.View.Paths) > 0 {
			finder = view.NewFinder(os.DirFS(app.BasePath()), settings.View.Paths, nil)
		}
		views, err := view.NewFactory(finder, settings.View.CacheSize)
		if err != nil {
			return nil, err
		}
		views.Share("app_name", settings.App.Name)
		return views, nil
	})
	return nil
}

// EncryptionServiceProvider builds the encrypter and the API token issuer
// from APP_KEY the first time either is needed
type EncryptionServiceProvider struct {
	foundation.BaseProvider
}

func (p *EncryptionServiceProvider) Provides() []string {
	return []string{foundation.ServiceEncrypter, foundation.ServiceTokens}
}

func (p *EncryptionServiceProvider) Register(app *foundation.Application) error {
	singleton(app, foundation.ServiceEncrypter, func(*foundation.Container) (interface{}, error) {
		settings, err := Settings(app)
		if err != nil {
			return nil, err
		}
		return encryption.FromAppKey(settings.App.Key)
	})
	singleton(app, foundation.ServiceTokens, func(*foundation.Container) (interface{}, error) {
		settings, err := Settings(app)
		if err != nil {
			return nil, err
		}
		key, err := encryption.ParseKey(settings.App.Key)
		if err != nil {
			return nil, err
		}
		return auth.NewTokens(key, settings.App.Name), nil
	})
	return nil
}

// DatabaseServiceProvider connects to the configured database and makes it
// the default connection of every model
type DatabaseServiceProvider struct {
	foundation.BaseProvider
}

func (p *DatabaseServiceProvider) Register(app *foundation.Application) error {
	settings, err := Settings(app)
	if err != nil {
		return err
	}
	if settings.Database.Connection == "" {
		return nil
	}
	cfg := DatabaseConfig(settings)
	if cfg.Driver() == "sqlite" && cfg.Path != "" && !filepath.IsAbs(cfg.Path) {
		cfg.Path = app.BasePath(cfg.Path)
	}
	singleton(app, foundation.ServiceDB, func(*foundation.Container) (interface{}, error) {
		return database.Connect(context.Background(), cfg)
	})
	return nil
}

func (p *DatabaseServiceProvider) Boot(app *foundation.Application) error {
	if !app.Bound(foundation.ServiceDB) {
		app.Logger().Debug("no database configured")
		return nil
	}
	db, err := foundation.Resolve[*gorm.DB](app.Container, foundation.ServiceDB)
	if err != nil {
		return err
	}
	database.SetConnection(db)
	return nil
}

// DatabaseConfig maps the database settings onto a connection config
func DatabaseConfig(settings *config.Settings) database.Config {
	d := settings.Database
	return database.Config{
		Connection: d.Connection,
		Host:       d.Host,
		Port:       d.Port,
		Database:   d.Database,
		Username:   d.Username,
		Password:   d.Password,
		Charset:    d.Charset,
		Path:       d.Path,
		Debug:      settings.Logging.Level == "debug",
	}
}

// AuditServiceProvider binds the audit trail when audit.enabled is set
type AuditServiceProvider struct {
	foundation.BaseProvider
}

func (p *AuditServiceProvider) Register(app *foundation.Application) error {
	settings, err := Settings(app)
	if err != nil {
		return err
	}
	if !settings.Audit.Enabled {
		return nil
	}
	singleton(app, foundation.ServiceAudit, func(c *foundation.Container) (interface{}, error) {
		var w io.Writer = os.Stdout
		if path := settings.Audit.Path; path != "" {
			if !filepath.IsAbs(path) {
				path = app.BasePath(path)
			}
			w = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    settings.Logging.MaxSize,
				MaxBackups: settings.Logging.MaxBackups,
				MaxAge:     settings.Logging.MaxAge,
			}
		}

		var store *audit.Store
		if settings.Audit.Database {
			db, err := foundation.Resolve[*gorm.DB](c, foundation.ServiceDB)
			if err != nil {
				return nil, fmt.Errorf("audit.database needs a database connection: %w", err)
			}
			store = audit.NewStore(db)
		}
		return audit.New(audit.NewLogger(settings.App.Name, w), store, app.Logger()), nil
	})
	return nil
}

// Auditor returns the bound audit trail, or nil when auditing is off
func Auditor(app *foundation.Application) (*audit.Auditor, error) {
	if !app.Bound(foundation.ServiceAudit) {
		return nil, nil
	}
	return foundation.Resolve[*audit.Auditor](app.Container, foundation.ServiceAudit)
}

// RouteServiceProvider maps the api routes, then the web routes with the
// catch-all 404 page last
type RouteServiceProvider struct {
	foundation.BaseProvider
}

func (p *RouteServiceProvider) Boot(app *foundation.Application) error {
	router, err := app.Router()
	if err != nil {
		return err
	}
	views, err := app.Views()
	if err != nil {
		return err
	}

	auditor, err := Auditor(app)
	if err != nil {
		return err
	}

	home := &HomeController{
		Views:    views,
		Messages: NewContactMessageSchema(nil),
		Logger:   app.Logger(),
		Audit:    auditor,
	}

	var guard routing.Middleware
	if tokens, err := foundation.Resolve[*auth.Tokens](app.Container, foundation.ServiceTokens); err == nil {
		jwt := middleware.NewJWTAuthenticator(tokens)
		jwt.Audit = auditor
		guard = jwt.Middleware
	} else {
		app.Logger().Warn("content API disabled", zap.Error(err))
	}

	mapAPIRoutes(router, home, guard, auditor)
	mapWebRoutes(router, home)
	return nil
}

func mapAPIRoutes(router *routing.Router, home *HomeController, guard routing.Middleware, auditor *audit.Auditor) {
	router.Group(routing.GroupAttributes{Prefix: "api", Name: "api."}, func(r *routing.Router) {
		r.Get("docs", home.APIDocs).Name("docs")
		if guard == nil {
			return
		}
		r.Group(routing.GroupAttributes{Middleware: []routing.Middleware{guard}}, func(r *routing.Router) {
			r.Resource("content", &ContentController{Contents: NewContentSchema(nil), Audit: auditor})
		})
	})
}

func mapWebRoutes(router *routing.Router, home *HomeController) {
	router.Get("/", home.Index).Name("home")
	router.Get("/about", home.About).Name("about")
	router.Get("/contact", home.ContactForm).Name("contact")
	router.Post("/contact", home.Contact).Name("contact.store")
	router.Get("{any:.*}", home.NotFound).Name("fallback")
}

// singleton binds name unless a service was supplied already
func singleton(app *foundation.Application, name string, factory foundation.Factory) {
	if app.Bound(name) {
		return
	}
	app.Singleton(name, factory)
}

// Providers are the application's service providers in registration order
func Providers() []foundation.ServiceProvider {
	return []foundation.ServiceProvider{
		&AppServiceProvider{},
		&EncryptionServiceProvider{},
		&DatabaseServiceProvider{},
		&AuditServiceProvider{},
		&RouteServiceProvider{},
	}
}

// Option adjusts the application before the providers register
type Option func(app *foundation.Application)

// WithInstance supplies a service, such as a logger or a database
// connection, in place of the one the providers would build
func WithInstance(name string, instance interface{}) Option {
	return func(app *foundation.Application) {
		app.Instance(name, instance)
	}
}

// Configure loads basePath/.env and registers AppServiceProvider only.
// Commands that must not touch the database start from here.
func Configure(basePath string, opts ...Option) (*foundation.Application, error) {
	app := foundation.NewApplication(basePath)
	if err := loadEnv(app.BasePath(".env")); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(app)
	}
	if err := app.Register(&AppServiceProvider{}); err != nil {
		return nil, err
	}
	return app, nil
}

// NewApplication loads basePath/.env, registers Providers and boots them
func NewApplication(basePath string, opts ...Option) (*foundation.Application, error) {
	app, err := Configure(basePath, opts...)
	if err != nil {
		return nil, err
	}
	for _, p := range Providers() {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	if err := app.Boot(); err != nil {
		return nil, fmt.Errorf("failed to boot application: %w", err)
	}
	return app, nil
}
