package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"report-submit-pipeline/config"
	"report-submit-pipeline/models"
)

const maxConnectAttempts = 8

// Database wraps the issues persistence collaborator.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the connection and waits for the server with exponential
// backoff, the way the rest of our services do on container startup.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	waitInterval := 1 * time.Second
	for attempt := 1; ; attempt++ {
		if err = db.Ping(); err == nil {
			break
		}
		if attempt >= maxConnectAttempts {
			db.Close()
			return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, err)
		time.Sleep(waitInterval)
		waitInterval *= 2
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying connection for handlers that need raw queries.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateIssuesTable creates the issues table if it doesn't exist.
func (d *Database) CreateIssuesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS issues (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		issue_type VARCHAR(255) NOT NULL,
		user_description TEXT,
		ai_description TEXT,
		image_url VARCHAR(1024) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'reported',
		latitude DOUBLE,
		longitude DOUBLE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_user_id (user_id),
		INDEX idx_status (status)
	)`

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create issues table: %w", err)
	}
	return nil
}

// SaveIssue inserts one submitted report and returns its assigned id.
func (d *Database) SaveIssue(ctx context.Context, report *models.IssueReport) (int64, error) {
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO issues
			(user_id, issue_type, user_description, ai_description, image_url, status, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.UserID,
		report.IssueType,
		report.UserDescription,
		report.AIDescription,
		report.ImageURL,
		report.Status,
		report.Latitude,
		report.Longitude,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert issue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted issue id: %w", err)
	}
	return id, nil
}

// GetIssuesByUser returns the user's submitted reports, newest first.
func (d *Database) GetIssuesByUser(ctx context.Context, userID string) ([]models.IssueReport, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, issue_type, user_description, ai_description,
		       image_url, status, latitude, longitude, created_at
		FROM issues
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []models.IssueReport
	for rows.Next() {
		var issue models.IssueReport
		if err := rows.Scan(
			&issue.ID,
			&issue.UserID,
			&issue.IssueType,
			&issue.UserDescription,
			&issue.AIDescription,
			&issue.ImageURL,
			&issue.Status,
			&issue.Latitude,
			&issue.Longitude,
			&issue.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate issue rows: %w", err)
	}
	return issues, nil
}

// GetIssue returns one of the user's reports by id.
func (d *Database) GetIssue(ctx context.Context, id int64, userID string) (*models.IssueReport, error) {
	var issue models.IssueReport
	err := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, issue_type, user_description, ai_description,
		       image_url, status, latitude, longitude, created_at
		FROM issues
		WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&issue.ID,
		&issue.UserID,
		&issue.IssueType,
		&issue.UserDescription,
		&issue.AIDescription,
		&issue.ImageURL,
		&issue.Status,
		&issue.Latitude,
		&issue.Longitude,
		&issue.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %d: %w", id, err)
	}
	return &issue, nil
}

// DeleteIssue removes one of the user's reports. Deleting someone else's
// report is reported as sql.ErrNoRows rather than silently succeeding.
func (d *Database) DeleteIssue(ctx context.Context, id int64, userID string) error {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM issues WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete issue %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for issue %d: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
