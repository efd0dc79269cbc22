package foundation

// ServiceProvider registers services into an Application and boots them
// once every provider is registered
type ServiceProvider interface {
	Register(app *Application) error
	Boot(app *Application) error
}

// DeferrableProvider is registered only when one of the services it
// provides is first made
type DeferrableProvider interface {
	ServiceProvider
	Provides() []string
}

// BaseProvider implements ServiceProvider with no-ops for embedding
type BaseProvider struct{}

func (BaseProvider) Register(*Application) error { return nil }

func (BaseProvider) Boot(*Application) error { return nil }
