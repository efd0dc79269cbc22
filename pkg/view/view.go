package view

// View is a named view bound to its file, engine and data
type View struct {
	factory *Factory
	engine  Engine
	name    string
	src     Source
	data    map[string]interface{}
}

func (v *View) Name() string   { return v.name }
func (v *View) Path() string   { return v.src.Path }
func (v *View) Source() Source { return v.src }

// Data returns a copy of the view's own data, without shared values
func (v *View) Data() map[string]interface{} {
	out := make(map[string]interface{}, len(v.data))
	for k, val := range v.data {
		out[k] = val
	}
	return out
}

// With sets a single value
func (v *View) With(key string, value interface{}) *View {
	v.data[key] = value
	return v
}

// WithData merges data into the view's data
func (v *View) WithData(data map[string]interface{}) *View {
	for k, val := range data {
		v.data[k] = val
	}
	return v
}

// Render runs the view's composers and renders it. View data overrides
// shared data of the same key.
func (v *View) Render() (string, error) {
	v.factory.call(v.factory.composersFor(v.name), v)

	data := v.factory.AllShared()
	for k, val := range v.data {
		data[k] = val
	}
	return v.engine.Get(v.src, data)
}
