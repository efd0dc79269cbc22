package routing

import (
	"path"

	"github.com/mediamind-ai/mediamind/pkg/web"
)

// ResourceController handles the CRUD routes of a resource
type ResourceController interface {
	Index(req *web.Request) (*web.Response, error)
	Store(req *web.Request) (*web.Response, error)
	Show(req *web.Request) (*web.Response, error)
	Update(req *web.Request) (*web.Response, error)
	Destroy(req *web.Request) (*web.Response, error)
}

// FormController adds the HTML form routes of a resource
type FormController interface {
	Create(req *web.Request) (*web.Response, error)
	Edit(req *web.Request) (*web.Response, error)
}

// Resource registers the conventional routes of a resource under uri:
//
//	GET    /posts            index
//	GET    /posts/create     create (FormController only)
//	POST   /posts            store
//	GET    /posts/{id}       show
//	GET    /posts/{id}/edit  edit (FormController only)
//	PUT    /posts/{id}       update
//	PATCH  /posts/{id}       update
//	DELETE /posts/{id}       destroy
//
// Routes are named after the last segment of uri, as in "posts.show".
func (r *Router) Resource(uri string, c ResourceController) {
	uri = prepareURI(uri)
	name := path.Base(uri)
	member := uri + "/{id}"
	forms, hasForms := c.(FormController)

	r.Get(uri, c.Index).Name(name + ".index")
	if hasForms {
		r.Get(uri+"/create", forms.Create).Name(name + ".create")
	}
	r.Post(uri, c.Store).Name(name + ".store")
	r.Get(member, c.Show).Name(name + ".show")
	if hasForms {
		r.Get(member+"/edit", forms.Edit).Name(name + ".edit")
	}
	r.Put(member, c.Update).Name(name + ".update")
	r.Patch(member, c.Update)
	r.Delete(member, c.Destroy).Name(name + ".destroy")
}
