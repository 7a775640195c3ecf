package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"supplyguard/internal/common/database"
	"supplyguard/internal/common/errors"
	"supplyguard/internal/common/logger"
	"supplyguard/internal/models"
)

// PostgresStore reads the supply-chain tables. All queries are
// read-only; schema ownership lives with the upstream ingestion service.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: client.GetDB(), logger: log}
}

// queryError separates a dead connection from a bad query. A lost
// connection is STORAGE_UNAVAILABLE and fatal to the pipeline; anything
// else is a retryable QUERY_FAILED.
func queryError(op string, err error) error {
	if isConnError(err) {
		return errors.NewStorageUnavailableError(err)
	}
	return errors.NewQueryFailedError(op, err)
}

func isConnError(err error) bool {
	if stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, sql.ErrConnDone) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}

func (p *PostgresStore) Equipment(ctx context.Context, f Filter) ([]models.Equipment, error) {
	query := `SELECT id, name, category, manufacturer, manufacturing_country, destination_country
		FROM equipment`

	var conds []string
	var args []interface{}
	if f.Country != "" {
		args = append(args, f.Country)
		conds = append(conds, fmt.Sprintf("(manufacturing_country ILIKE $%d OR destination_country ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	query = appendConds(query, conds)
	query += " ORDER BY name"
	query = appendLimit(query, &args, f.Limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("equipment", err)
	}
	defer rows.Close()

	var out []models.Equipment
	for rows.Next() {
		var eq models.Equipment
		if err := rows.Scan(&eq.ID, &eq.Name, &eq.Category, &eq.Manufacturer,
			&eq.ManufacturingCountry, &eq.DestinationCountry); err != nil {
			return nil, queryError("equipment", err)
		}
		out = append(out, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("equipment", err)
	}
	return out, nil
}

func (p *PostgresStore) Schedules(ctx context.Context, f Filter) ([]models.Schedule, error) {
	query := `SELECT s.id, s.equipment_id, s.status, s.planned_start_date, s.planned_end_date, s.delay_days, s.priority
		FROM schedules s`

	var conds []string
	var args []interface{}
	if f.Country != "" || f.Category != "" {
		query += " JOIN equipment e ON e.id = s.equipment_id"
	}
	if f.Country != "" {
		args = append(args, f.Country)
		conds = append(conds, fmt.Sprintf("(e.manufacturing_country ILIKE $%d OR e.destination_country ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("e.category ILIKE $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("s.planned_end_date >= $%d", len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		conds = append(conds, fmt.Sprintf("s.planned_start_date <= $%d", len(args)))
	}
	query = appendConds(query, conds)
	query += " ORDER BY s.planned_end_date"
	query = appendLimit(query, &args, f.Limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("schedules", err)
	}
	defer rows.Close()

	var out []models.Schedule
	for rows.Next() {
		var s models.Schedule
		var priority sql.NullString
		if err := rows.Scan(&s.ID, &s.EquipmentID, &s.Status,
			&s.PlannedStartDate, &s.PlannedEndDate, &s.DelayDays, &priority); err != nil {
			return nil, queryError("schedules", err)
		}
		s.Priority = priority.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("schedules", err)
	}
	return out, nil
}

func (p *PostgresStore) NewsEvents(ctx context.Context, f Filter) ([]models.NewsEvent, error) {
	query := `SELECT id, title, content, source, country, category, impact_level, published_date
		FROM news_events`

	var conds []string
	var args []interface{}
	if f.Country != "" {
		args = append(args, f.Country)
		conds = append(conds, fmt.Sprintf("country ILIKE $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("published_date >= $%d", len(args)))
	}
	if !f.Until.IsZero() {
		args = append(args, f.Until)
		conds = append(conds, fmt.Sprintf("published_date <= $%d", len(args)))
	}
	query = appendConds(query, conds)
	query += " ORDER BY published_date DESC"
	query = appendLimit(query, &args, f.Limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("news_events", err)
	}
	defer rows.Close()

	var out []models.NewsEvent
	for rows.Next() {
		var ev models.NewsEvent
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Content, &ev.Source,
			&ev.Country, &ev.Category, &ev.ImpactLevel, &ev.PublishedDate); err != nil {
			return nil, queryError("news_events", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("news_events", err)
	}
	return out, nil
}

// Ping verifies the connection for health checks.
func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return errors.NewStorageUnavailableError(err)
	}
	return nil
}

func appendConds(query string, conds []string) string {
	if len(conds) == 0 {
		return query
	}
	return query + " WHERE " + strings.Join(conds, " AND ")
}

func appendLimit(query string, args *[]interface{}, n int) string {
	if n <= 0 {
		return query
	}
	*args = append(*args, n)
	return fmt.Sprintf("%s LIMIT $%d", query, len(*args))
}
