// Package site is the MediaMind AI website and content API.
//
// Routes, in matching order:
//
//	GET    /api/docs            API reference (JSON, or HTML for browsers)
//	GET    /api/content         list content          (bearer token)
//	POST   /api/content         create content        (bearer token)
//	GET    /api/content/{id}    show content          (bearer token)
//	PUT    /api/content/{id}    update content        (bearer token)
//	DELETE /api/content/{id}    delete content        (bearer token)
//	GET    /                    home page
//	GET    /about               about page
//	GET    /contact             contact form
//	POST   /contact             contact submission (JSON reply)
//	GET    /{any}               404 page
//
// NewApplication registers the providers in Providers and boots them.
// Bearer tokens are HS256 JWTs signed with APP_KEY; without a key the
// content API is not mapped.
package site
