package domain

// View is a navigable page of the dashboard.
type View string

const (
	ViewLanding   View = "/"
	ViewDashboard View = "/dashboard"
	ViewProfile   View = "/dashboard/profile"
)

// AuthenticatedOnly reports whether v requires a session.
func (v View) AuthenticatedOnly() bool {
	return v == ViewDashboard || v == ViewProfile
}

// Known reports whether v is a view the dashboard serves.
func (v View) Known() bool {
	return v == ViewLanding || v.AuthenticatedOnly()
}
