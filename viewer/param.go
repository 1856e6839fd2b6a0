package viewer

// Param is the route parameter that identifies the snippet to display.
//
// The parameter is not necessarily known when the page is first rendered, so
// it may be absent.
type Param struct {
	id      string
	present bool
}

// Absent returns a parameter that has not yet been resolved.
func Absent() Param {
	return Param{}
}

// Present returns a parameter that has resolved to the given ID.
func Present(id string) Param {
	return Param{id, true}
}

// ID returns the snippet ID. ok is false if the parameter is absent or
// resolved to an empty ID.
func (p Param) ID() (id string, ok bool) {
	return p.id, p.present && p.id != ""
}
