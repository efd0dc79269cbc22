// Package routing maps HTTP methods and paths to actions.
//
// Each method owns an ordered table backed by a gorilla/mux router. URIs
// are normalised to a single leading slash and use mux templates:
//
//	r := routing.NewRouter()
//	r.Get("/", home.Index)
//	r.Get("/posts/{id}", posts.Show).Name("posts.show")
//	r.Get("{any:.*}", home.NotFound) // catch-all, register last
//
// Dispatch tries the routes of the request method in registration order
// and runs the first match. A method without a table answers 405 Method
// Not Allowed and a path without a match answers 404 Not Found. Route
// parameters are available through web.Request.Param.
package routing
