package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"

	"report-submit-pipeline/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func testReport() *models.IssueReport {
	return &models.IssueReport{
		UserID:          "user-123",
		IssueType:       "Garbage Dump",
		UserDescription: "Pile of garbage near the bus stop",
		AIDescription:   "This is a large pile of garbage.",
		ImageURL:        "https://cdn.example.com/issue-images/issue-1-abc.jpg",
		Status:          models.StatusReported,
		Latitude:        19.076,
		Longitude:       72.8777,
	}
}

func TestSaveIssue(t *testing.T) {
	it(func() {
		report := testReport()

		mock.ExpectExec("INSERT INTO issues").
			WithArgs(
				report.UserID,
				report.IssueType,
				report.UserDescription,
				report.AIDescription,
				report.ImageURL,
				report.Status,
				report.Latitude,
				report.Longitude,
			).
			WillReturnResult(sqlmock.NewResult(42, 1))

		d := &Database{db: db}
		id, err := d.SaveIssue(context.Background(), report)
		if err != nil {
			t.Fatalf("SaveIssue() error = %v", err)
		}
		if id != 42 {
			t.Errorf("SaveIssue() id = %d, want 42", id)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestSaveIssueError(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO issues").
			WillReturnError(errors.New("connection lost"))

		d := &Database{db: db}
		if _, err := d.SaveIssue(context.Background(), testReport()); err == nil {
			t.Error("SaveIssue() should propagate the insert error")
		}
	})
}

func TestGetIssuesByUser(t *testing.T) {
	it(func() {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "user_id", "issue_type", "user_description", "ai_description",
			"image_url", "status", "latitude", "longitude", "created_at",
		}).
			AddRow(2, "user-123", "Pothole", "deep pothole", "A deep pothole.", "https://cdn/p.jpg", "reported", 19.0, 72.8, now).
			AddRow(1, "user-123", "Graffiti", "wall tagged", "Graffiti on wall.", "https://cdn/g.jpg", "reported", 19.1, 72.9, now.Add(-time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM issues").
			WithArgs("user-123").
			WillReturnRows(rows)

		d := &Database{db: db}
		issues, err := d.GetIssuesByUser(context.Background(), "user-123")
		if err != nil {
			t.Fatalf("GetIssuesByUser() error = %v", err)
		}
		if len(issues) != 2 {
			t.Fatalf("GetIssuesByUser() returned %d issues, want 2", len(issues))
		}
		if issues[0].IssueType != "Pothole" || issues[1].IssueType != "Graffiti" {
			t.Errorf("unexpected ordering: %+v", issues)
		}
	})
}

func TestDeleteIssue(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM issues").
			WithArgs(int64(7), "user-123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		d := &Database{db: db}
		if err := d.DeleteIssue(context.Background(), 7, "user-123"); err != nil {
			t.Errorf("DeleteIssue() error = %v", err)
		}
	})
}

func TestDeleteIssueNotOwned(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM issues").
			WithArgs(int64(7), "someone-else").
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := &Database{db: db}
		err := d.DeleteIssue(context.Background(), 7, "someone-else")
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("DeleteIssue() on a foreign report = %v, want sql.ErrNoRows", err)
		}
	})
}
