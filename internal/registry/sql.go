package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// SQL is a Registry backed by the redirect_handlers table.
type SQL struct {
	database *sql.DB
}

// NewSQL returns a new SQL registry.
func NewSQL(database *sql.DB) *SQL {
	return &SQL{database: database}
}

func (s *SQL) Register(ctx context.Context, reg Registration) error {
	reg.Scheme = strings.ToLower(reg.Scheme)
	reg.Host = strings.ToLower(reg.Host)

	// Form and execute query.
	query, args := insertRegistrationQuery(reg)
	result, err := s.database.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error in query execution: %w", err)
	}

	// Parameters for logging.
	af, _ := result.RowsAffected()

	slog.InfoContext(ctx, "redirect handler registered", "component", reg.Component.Name,
		"package", reg.Component.Package, "scheme", reg.Scheme, "rows-affected", af)
	return nil
}

func (s *SQL) QueryBrowsableHandlers(ctx context.Context, scheme, host string) ([]Component, error) {
	// Form and execute query.
	query, args := selectBrowsableHandlersQuery(strings.ToLower(scheme), strings.ToLower(host))
	rows, err := s.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error in query execution: %w", err)
	}
	// Close rows upon return.
	defer func() { _ = rows.Close() }()

	var components []Component
	for rows.Next() {
		var c Component
		if err := rows.Scan(&c.Name, &c.Package); err != nil {
			return nil, fmt.Errorf("error in rows.Scan call: %w", err)
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in rows iteration: %w", err)
	}

	return components, nil
}
