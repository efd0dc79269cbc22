// Package foundation ties the framework together.
//
// A Container maps service names to factories or instances. Application
// embeds one and adds the provider lifecycle: every ServiceProvider is
// registered once per type, then Boot runs each provider's Boot in
// registration order. Providers implementing DeferrableProvider are only
// registered when one of their services is first made.
//
//	app := foundation.NewApplication(".")
//	_ = app.Register(&site.AppServiceProvider{})
//	_ = app.Boot()
//	http.ListenAndServe(":8000", app)
//
// Application is also the HTTP kernel: requests are dispatched through the
// bound router and any error is logged and answered with the errors.500
// view. The error message is only shown when app.debug is set.
package foundation
