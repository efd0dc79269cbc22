// Package view locates and renders views.
//
// Views are addressed by dotted names relative to the registered
// locations ("errors.404" is errors/404.tmpl) or by "namespace::name" for
// views registered under a namespace. The engine is picked by the file
// extension:
//
//	tmpl   html/template, parsed with the location's layouts/ and partials/
//	md     GitHub flavoured markdown
//	html   raw file
//	css    raw file
//
// A page template defines its blocks and then invokes its layout:
//
//	{{define "content"}}<h1>{{.title}}</h1>{{end}}
//	{{template "layouts/app" .}}
package view
