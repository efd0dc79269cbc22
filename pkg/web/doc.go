// Package web provides the Request and Response types passed to route actions.
//
// A Request wraps *http.Request and exposes query, body, cookie and header
// input. Form and JSON bodies are both decoded into the body input, so
//
//	name := req.InputString("name", "")
//
// works the same for an HTML form post and an XHR JSON post.
//
// A Response is built by an action and written with Send:
//
//	res, err := web.JSON(map[string]interface{}{"ok": true}, http.StatusOK, nil)
//	if err != nil {
//	    return nil, err
//	}
//	return res, nil
//
// Header names are stored lower-case with underscores turned into dashes
// and are written in canonical form.
package web
