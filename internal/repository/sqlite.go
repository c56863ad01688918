package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"go-disaster-watch/internal/geo"
	"go-disaster-watch/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			severity REAL NOT NULL,
			impact_radius REAL NOT NULL,
			analysis TEXT,
			keywords TEXT,
			place_of_impact TEXT,
			neighborhood TEXT,
			incident_name TEXT,
			status TEXT NOT NULL,
			needs_review INTEGER NOT NULL DEFAULT 0,
			verification_score REAL NOT NULL DEFAULT 0,
			verification_status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS timeline_entries (
			id TEXT PRIMARY KEY,
			incident_id TEXT NOT NULL,
			update_text TEXT NOT NULL,
			severity REAL,
			impact_radius REAL,
			timestamp DATETIME NOT NULL,
			FOREIGN KEY (incident_id) REFERENCES incidents(id)
		);

		CREATE INDEX IF NOT EXISTS idx_incidents_created_at ON incidents(created_at);
		CREATE INDEX IF NOT EXISTS idx_incidents_type ON incidents(type);
		CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(status);
		CREATE INDEX IF NOT EXISTS idx_timeline_incident_id ON timeline_entries(incident_id);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

const incidentColumns = `id, user_id, type, title, description, latitude, longitude,
	severity, impact_radius, analysis, keywords, place_of_impact, neighborhood,
	incident_name, status, needs_review, verification_score, verification_status,
	created_at, updated_at`

func (s *SQLiteDB) Add(ctx context.Context, inc *models.Incident) error {
	if err := inc.Validate(); err != nil {
		return fmt.Errorf("invalid incident: %w", err)
	}

	keywords, err := json.Marshal(inc.Metadata.Keywords)
	if err != nil {
		return fmt.Errorf("error encoding keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.UserID, string(inc.Type), inc.Title, inc.Description,
		inc.Latitude, inc.Longitude, inc.Severity, inc.ImpactRadius, inc.Analysis,
		string(keywords), inc.Metadata.PlaceOfImpact, inc.Metadata.Neighborhood,
		inc.Metadata.IncidentName, string(inc.Status), inc.NeedsReview,
		inc.VerificationScore, string(inc.VerificationStatus),
		inc.CreatedAt, inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting incident: %w", err)
	}
	return nil
}

// Save persists the mutable fields of an existing incident.
func (s *SQLiteDB) Save(ctx context.Context, inc *models.Incident) error {
	if err := inc.Validate(); err != nil {
		return fmt.Errorf("invalid incident: %w", err)
	}

	keywords, err := json.Marshal(inc.Metadata.Keywords)
	if err != nil {
		return fmt.Errorf("error encoding keywords: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET
			type = ?, title = ?, description = ?, latitude = ?, longitude = ?,
			severity = ?, impact_radius = ?, analysis = ?, keywords = ?,
			place_of_impact = ?, neighborhood = ?, incident_name = ?, status = ?,
			needs_review = ?, verification_score = ?, verification_status = ?,
			updated_at = ?
		WHERE id = ?`,
		string(inc.Type), inc.Title, inc.Description, inc.Latitude, inc.Longitude,
		inc.Severity, inc.ImpactRadius, inc.Analysis, string(keywords),
		inc.Metadata.PlaceOfImpact, inc.Metadata.Neighborhood,
		inc.Metadata.IncidentName, string(inc.Status), inc.NeedsReview,
		inc.VerificationScore, string(inc.VerificationStatus),
		inc.UpdatedAt, inc.ID)
	if err != nil {
		return fmt.Errorf("error updating incident: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)

	inc, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching incident: %w", err)
	}
	return inc, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM incidents WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking incident existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteDB) FindRecent(ctx context.Context, since time.Time) ([]models.Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE created_at >= ? AND status = ?
		ORDER BY created_at DESC`, since, string(models.IncidentStatusActive))
	if err != nil {
		return nil, fmt.Errorf("error fetching recent incidents: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

func (s *SQLiteDB) ListIncidents(ctx context.Context, opts Filter) ([]models.Incident, error) {
	var (
		conditions []string
		args       []any
	)

	if opts.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *opts.Since)
	}
	if opts.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.MinSeverity != nil {
		conditions = append(conditions, "severity >= ?")
		args = append(args, *opts.MinSeverity)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing incidents: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

// FindNearby returns incidents within radiusMeters of center. A bounding-box
// prefilter narrows the SQL scan; the exact great-circle check runs in Go.
func (s *SQLiteDB) FindNearby(ctx context.Context, center models.Coordinates, radiusMeters float64) ([]models.Incident, error) {
	const metersPerDegree = 111195.0
	latDelta := radiusMeters / metersPerDegree
	// Widest longitudinal span occurs at the higher latitude of the box.
	lonDelta := latDelta * 2

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
		ORDER BY created_at DESC`,
		center.Latitude-latDelta, center.Latitude+latDelta,
		center.Longitude-lonDelta, center.Longitude+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("error querying nearby incidents: %w", err)
	}
	defer rows.Close()

	candidates, err := scanIncidents(rows)
	if err != nil {
		return nil, err
	}

	nearby := make([]models.Incident, 0, len(candidates))
	for _, inc := range candidates {
		if geo.Distance(center, inc.Coordinates()) <= radiusMeters {
			nearby = append(nearby, inc)
		}
	}
	return nearby, nil
}

func (s *SQLiteDB) FindByKeyword(ctx context.Context, keyword string) ([]models.Incident, error) {
	// Keywords are stored as a JSON array; match the quoted element.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE keywords LIKE ?
		ORDER BY created_at DESC LIMIT 50`,
		`%"`+keyword+`"%`)
	if err != nil {
		return nil, fmt.Errorf("error querying incidents by keyword: %w", err)
	}
	defer rows.Close()

	return scanIncidents(rows)
}

func (s *SQLiteDB) AppendTimeline(ctx context.Context, incidentID string, entry models.TimelineEntry) error {
	exists, err := s.Exists(ctx, incidentID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timeline_entries (id, incident_id, update_text, severity, impact_radius, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, incidentID, entry.Update, entry.Severity, entry.ImpactRadius, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("error appending timeline entry: %w", err)
	}
	return nil
}

// Timeline returns the incident's entries in insertion order.
func (s *SQLiteDB) Timeline(ctx context.Context, incidentID string) ([]models.TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_id, update_text, severity, impact_radius, timestamp
		FROM timeline_entries WHERE incident_id = ?
		ORDER BY timestamp ASC, rowid ASC`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("error fetching timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.Update, &e.Severity, &e.ImpactRadius, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning timeline entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteDB) AggregateByType(ctx context.Context, since time.Time) ([]TypeAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*), AVG(severity), AVG(impact_radius)
		FROM incidents WHERE created_at >= ?
		GROUP BY type ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("error aggregating incidents: %w", err)
	}
	defer rows.Close()

	var aggs []TypeAggregate
	for rows.Next() {
		var (
			a       TypeAggregate
			rawType string
		)
		if err := rows.Scan(&rawType, &a.Count, &a.AverageSeverity, &a.AverageImpactRadius); err != nil {
			return nil, fmt.Errorf("error scanning aggregate: %w", err)
		}
		a.Type = models.IncidentType(rawType)
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	var (
		inc      models.Incident
		rawType  string
		status   string
		vStatus  string
		keywords string
	)
	err := row.Scan(&inc.ID, &inc.UserID, &rawType, &inc.Title, &inc.Description,
		&inc.Latitude, &inc.Longitude, &inc.Severity, &inc.ImpactRadius,
		&inc.Analysis, &keywords, &inc.Metadata.PlaceOfImpact,
		&inc.Metadata.Neighborhood, &inc.Metadata.IncidentName, &status,
		&inc.NeedsReview, &inc.VerificationScore, &vStatus,
		&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	inc.Type = models.IncidentType(rawType)
	inc.Status = models.IncidentStatus(status)
	inc.VerificationStatus = models.VerificationStatus(vStatus)
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &inc.Metadata.Keywords); err != nil {
			return nil, fmt.Errorf("error decoding keywords for %s: %w", inc.ID, err)
		}
	}
	return &inc, nil
}

func scanIncidents(rows *sql.Rows) ([]models.Incident, error) {
	incidents := make([]models.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning incident: %w", err)
		}
		incidents = append(incidents, *inc)
	}
	return incidents, rows.Err()
}
