package foundation

import (
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/mediamind-ai/mediamind/pkg/config"
	"github.com/mediamind-ai/mediamind/pkg/routing"
	"github.com/mediamind-ai/mediamind/pkg/server/middleware"
	"github.com/mediamind-ai/mediamind/pkg/view"
	"github.com/mediamind-ai/mediamind/pkg/web"
)

// Well known service names
const (
	ServiceApp       = "app"
	ServiceConfig    = "config"
	ServiceSettings  = "settings"
	ServiceLogger    = "log"
	ServiceRouter    = "router"
	ServiceView      = "view"
	ServiceDB        = "db"
	ServiceEncrypter = "encrypter"
	ServiceTokens    = "tokens"
	ServiceAudit     = "audit"
)

// Application is the service container plus the provider lifecycle and the
// HTTP kernel
type Application struct {
	*Container

	basePath string

	mu         sync.Mutex
	providers  []ServiceProvider
	registered map[reflect.Type]bool
	deferred   map[string]DeferrableProvider
	booted     bool
}

// NewApplication returns an application rooted at basePath with its
// configuration repository reading basePath/config
func NewApplication(basePath string) *Application {
	if abs, err := filepath.Abs(basePath); err == nil {
		basePath = abs
	}
	a := &Application{
		Container:  NewContainer(),
		basePath:   basePath,
		registered: make(map[reflect.Type]bool),
		deferred:   make(map[string]DeferrableProvider),
	}
	a.Container.missing = a.loadDeferred
	a.Container.deferred = a.isDeferred

	a.Instance(ServiceApp, a)
	a.Instance(ServiceConfig, config.New(a.ConfigPath()))
	return a
}

func (a *Application) path(base string, elem []string) string {
	return filepath.Join(append([]string{base}, elem...)...)
}

// BasePath joins elem onto the application root
func (a *Application) BasePath(elem ...string) string { return a.path(a.basePath, elem) }

func (a *Application) ConfigPath(elem ...string) string {
	return a.path(a.BasePath("config"), elem)
}

func (a *Application) StoragePath(elem ...string) string {
	return a.path(a.BasePath("storage"), elem)
}

func (a *Application) ResourcePath(elem ...string) string {
	return a.path(a.BasePath("resources"), elem)
}

// CachePath is bootstrap/cache, where the configuration cache lives
func (a *Application) CachePath(elem ...string) string {
	return a.path(a.BasePath("bootstrap", "cache"), elem)
}

// ConfigCachePath is the file written by "config cache"
func (a *Application) ConfigCachePath() string { return a.CachePath("config.json") }

// Register registers p once per provider type. Providers registered after
// Boot are booted immediately.
func (a *Application) Register(p ServiceProvider) error {
	if d, ok := p.(DeferrableProvider); ok && len(d.Provides()) > 0 {
		a.mu.Lock()
		if !a.registered[reflect.TypeOf(p)] {
			for _, name := range d.Provides() {
				a.deferred[name] = d
			}
		}
		a.mu.Unlock()
		return nil
	}
	return a.register(p)
}

func (a *Application) register(p ServiceProvider) error {
	t := reflect.TypeOf(p)

	a.mu.Lock()
	if a.registered[t] {
		a.mu.Unlock()
		return nil
	}
	a.registered[t] = true
	a.mu.Unlock()

	if err := p.Register(a); err != nil {
		return fmt.Errorf("failed to register %T: %w", p, err)
	}

	a.mu.Lock()
	a.providers = append(a.providers, p)
	booted := a.booted
	a.mu.Unlock()

	if booted {
		if err := p.Boot(a); err != nil {
			return fmt.Errorf("failed to boot %T: %w", p, err)
		}
	}
	return nil
}

func (a *Application) isDeferred(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.deferred[name]
	return ok
}

func (a *Application) loadDeferred(name string) error {
	a.mu.Lock()
	p, ok := a.deferred[name]
	if ok {
		for _, provided := range p.Provides() {
			delete(a.deferred, provided)
		}
	}
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.register(p)
}

// Boot boots every registered provider in registration order. Deferred
// providers loaded while booting are booted too.
func (a *Application) Boot() error {
	a.mu.Lock()
	booted := a.booted
	a.mu.Unlock()
	if booted {
		return nil
	}

	for i := 0; ; i++ {
		a.mu.Lock()
		if i >= len(a.providers) {
			a.booted = true
			a.mu.Unlock()
			return nil
		}
		p := a.providers[i]
		a.mu.Unlock()

		if err := p.Boot(a); err != nil {
			return fmt.Errorf("failed to boot %T: %w", p, err)
		}
	}
}

func (a *Application) IsBooted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Providers returns the registered providers in registration order
func (a *Application) Providers() []ServiceProvider {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ServiceProvider(nil), a.providers...)
}

// MergeConfigFrom fills key with defaults, keeping values already configured
func (a *Application) MergeConfigFrom(key string, defaults map[string]interface{}) {
	cfg := a.Config()
	existing, _ := cfg.Get(key, nil).(map[string]interface{})
	if existing == nil {
		cfg.Set(key, defaults)
		return
	}
	for k, v := range defaults {
		if _, ok := existing[k]; !ok {
			cfg.Set(key+"."+k, v)
		}
	}
}

// LoadViewsFrom registers dirs of fsys as the "ns::" view namespace
func (a *Application) LoadViewsFrom(ns string, fsys fs.FS, dirs ...string) error {
	views, err := a.Views()
	if err != nil {
		return err
	}
	views.AddNamespace(ns, fsys, dirs...)
	return nil
}

// Config returns the configuration repository
func (a *Application) Config() *config.Repository {
	cfg, err := Resolve[*config.Repository](a.Container, ServiceConfig)
	if err != nil {
		return config.Default()
	}
	return cfg
}

func (a *Application) Router() (*routing.Router, error) {
	return Resolve[*routing.Router](a.Container, ServiceRouter)
}

func (a *Application) Views() (*view.Factory, error) {
	return Resolve[*view.Factory](a.Container, ServiceView)
}

// Logger returns the bound logger, or a no-op logger
func (a *Application) Logger() *zap.Logger {
	logger, err := Resolve[*zap.Logger](a.Container, ServiceLogger)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (a *Application) Environment() string { return a.Config().String("app.env", "production") }

func (a *Application) IsDebug() bool { return a.Config().Bool("app.debug", false) }

// ServeHTTP dispatches r through the router. The first error stops the
// request with a generic error response.
func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router, err := a.Router()
	if err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := router.Dispatch(web.NewRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := res.Send(w); err != nil {
		a.Logger().Warn("failed to send response", zap.Error(err))
	}
}

func (a *Application) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.Logger().Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err),
	)

	message := ""
	if a.IsDebug() {
		message = err.Error()
	}

	if web.NewRequest(r).WantsJSON() {
		body := map[string]string{"message": "Server Error"}
		if message != "" {
			body["error"] = message
		}
		if res, jerr := web.JSON(body, http.StatusInternalServerError, nil); jerr == nil {
			_ = res.Send(w)
			return
		}
	}

	if views, verr := a.Views(); verr == nil {
		html, rerr := views.Render("errors.500", map[string]interface{}{
			"title":   "Server Error",
			"message": message,
		})
		if rerr == nil {
			if res, herr := web.HTML(html, http.StatusInternalServerError); herr == nil {
				_ = res.Send(w)
				return
			}
		}
	}

	http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
}
