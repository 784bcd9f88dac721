package registry

func insertRegistrationQuery(r Registration) (string, []any) {
	return `INSERT INTO redirect_handlers (component_name, package_name, action, browsable, scheme, host)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (component_name, package_name, action, scheme, host) DO UPDATE SET
	browsable = EXCLUDED.browsable`, []any{r.Component.Name, r.Component.Package, r.Action, r.Browsable, r.Scheme, r.Host}
}

func selectBrowsableHandlersQuery(scheme, host string) (string, []any) {
	return `SELECT DISTINCT component_name, package_name FROM redirect_handlers
WHERE action = $1 AND browsable AND scheme = $2 AND (host = '' OR host = $3)
ORDER BY package_name, component_name`, []any{ActionView, scheme, host}
}
