package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	"github.com/justsurfingit/job-application-tracker/internal/models"
)

// Timestamps are stored as fixed-width UTC text so that they sort lexically.
const (
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout      = "2006-01-02"
)

const jobColumns = `id, user_id, company, position, location, job_type, status, deadline, salary,
	notes, created_at, updated_at, tags, priority, application_link, contact_name,
	contact_email, follow_up_date`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	name TEXT NOT NULL DEFAULT '',
	avatar_url TEXT,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	company TEXT NOT NULL,
	position TEXT NOT NULL,
	location TEXT,
	job_type TEXT NOT NULL CHECK (job_type IN ('full-time','part-time','contract','freelance','internship')),
	status TEXT NOT NULL CHECK (status IN ('saved','applied','interviewing','offer','rejected','accepted')),
	deadline TEXT,
	salary REAL,
	notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	tags TEXT,
	priority TEXT NOT NULL DEFAULT 'medium',
	application_link TEXT,
	contact_name TEXT,
	contact_email TEXT,
	follow_up_date TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_user_created ON jobs(user_id, created_at);

CREATE TABLE IF NOT EXISTS job_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	job_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	from_status TEXT NOT NULL DEFAULT '',
	to_status TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_job_events_user_created ON job_events(user_id, created_at);
`

// patchable lists the columns UpdateJob accepts.
var patchable = map[string]bool{
	models.ColCompany:         true,
	models.ColPosition:        true,
	models.ColLocation:        true,
	models.ColJobType:         true,
	models.ColStatus:          true,
	models.ColDeadline:        true,
	models.ColSalary:          true,
	models.ColNotes:           true,
	models.ColTags:            true,
	models.ColPriority:        true,
	models.ColApplicationLink: true,
	models.ColContactName:     true,
	models.ColContactEmail:    true,
	models.ColFollowUpDate:    true,
}

// SQLite is a single-file backend on database/sql.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{DB: db, Now: time.Now}
}

// Migrate creates the tables if they do not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLite) LookupUser(ctx context.Context, token string) (*domain.User, error) {
	var (
		u      models.User
		avatar sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT u.id, u.name, u.email, u.avatar_url
FROM sessions s JOIN users u ON u.id = s.user_id
WHERE s.token = ? AND s.expires_at > ?`,
		token, formatTimestamp(s.Now())).Scan(&u.ID, &u.Name, &u.Email, &avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.AvatarURL = fromNullString(avatar)
	return toDomainUser(u), nil
}

func (s *SQLite) ListJobs(ctx context.Context, userID string) ([]models.JobRow, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobRow
	for rows.Next() {
		row, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLite) InsertJob(ctx context.Context, row models.JobRow) (models.JobRow, error) {
	now := s.Now().UTC()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Priority == "" {
		row.Priority = string(domain.PriorityMedium)
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	tags, err := encodeTags(row.Tags)
	if err != nil {
		return models.JobRow{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.UserID, row.Company, row.Position, toNullString(row.Location),
			row.JobType, row.Status, toNullDate(row.Deadline), toNullFloat(row.Salary),
			toNullString(row.Notes), formatTimestamp(row.CreatedAt), formatTimestamp(row.UpdatedAt),
			tags, row.Priority, toNullString(row.ApplicationLink), toNullString(row.ContactName),
			toNullString(row.ContactEmail), toNullDate(row.FollowUpDate))
		if err != nil {
			return err
		}
		return insertEvent(ctx, tx, statusEvent(row, "", now))
	})
	if err != nil {
		return models.JobRow{}, err
	}
	return s.getJob(ctx, s.DB, row.ID)
}

func (s *SQLite) UpdateJob(ctx context.Context, id, userID string, patch models.RowPatch) (models.JobRow, error) {
	var updated models.JobRow
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var from, created string
		err := tx.QueryRowContext(ctx,
			`SELECT status, created_at FROM jobs WHERE id = ? AND user_id = ?`, id, userID).Scan(&from, &created)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := s.Now().UTC()
		if createdAt, err := parseTimestamp(created); err == nil && now.Before(createdAt) {
			now = createdAt
		}

		sets := make([]string, 0, len(patch)+1)
		args := make([]any, 0, len(patch)+3)
		for _, col := range patch.Columns() {
			if !patchable[col] {
				return fmt.Errorf("column %q cannot be updated", col)
			}
			v, err := sqliteValue(patch[col])
			if err != nil {
				return err
			}
			sets = append(sets, col+" = ?")
			args = append(args, v)
		}
		sets = append(sets, "updated_at = ?")
		args = append(args, formatTimestamp(now), id, userID)

		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}

		updated, err = s.getJob(ctx, tx, id)
		if err != nil {
			return err
		}
		if updated.Status != from {
			return insertEvent(ctx, tx, statusEvent(updated, from, now))
		}
		return nil
	})
	if err != nil {
		return models.JobRow{}, err
	}
	return updated, nil
}

func (s *SQLite) DeleteJob(ctx context.Context, id, userID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func (s *SQLite) ListEvents(ctx context.Context, userID string, since time.Time) ([]models.JobEvent, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, created_at, job_id, user_id, event_type, from_status, to_status
FROM job_events WHERE user_id = ? AND created_at >= ? ORDER BY created_at, id`,
		userID, formatTimestamp(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobEvent
	for rows.Next() {
		var (
			e       models.JobEvent
			created string
		)
		if err := rows.Scan(&e.ID, &created, &e.JobID, &e.UserID, &e.EventType, &e.FromStatus, &e.ToStatus); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := s.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, user.Email).Scan(&exists)
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO users (id, email, name, avatar_url, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Email, user.Name, toNullString(user.AvatarURL), user.PasswordHash,
			formatTimestamp(now), formatTimestamp(now))
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *SQLite) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u                models.User
		avatar           sql.NullString
		created, updated string
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT id, email, name, avatar_url, password_hash, created_at, updated_at
FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &avatar, &u.PasswordHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.AvatarURL = fromNullString(avatar)
	if u.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLite) CreateSession(ctx context.Context, session models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = s.Now()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, formatTimestamp(session.ExpiresAt), formatTimestamp(session.CreatedAt))
	return err
}

func (s *SQLite) FindSession(ctx context.Context, token string) (*models.Session, error) {
	var (
		session            models.Session
		expires, createdAt string
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ? AND expires_at > ?`,
		token, formatTimestamp(s.Now())).Scan(&session.Token, &session.UserID, &expires, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTimestamp(expires); err != nil {
		return nil, err
	}
	if session.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SQLite) DeleteSession(ctx context.Context, token string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) getJob(ctx context.Context, q queryer, id string) (models.JobRow, error) {
	row, err := scanJob(q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobRow{}, ErrNotFound
	}
	return row, err
}

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, e models.JobEvent) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO job_events (created_at, job_id, user_id, event_type, from_status, to_status)
VALUES (?, ?, ?, ?, ?, ?)`,
		formatTimestamp(e.CreatedAt), e.JobID, e.UserID, e.EventType, e.FromStatus, e.ToStatus)
	return err
}

func scanJob(sc scanner) (models.JobRow, error) {
	var (
		r                                                models.JobRow
		location, notes, link, contactName, contactEmail sql.NullString
		deadline, followUp, tags                         sql.NullString
		salary                                           sql.NullFloat64
		created, updated                                 string
	)
	err := sc.Scan(&r.ID, &r.UserID, &r.Company, &r.Position, &location, &r.JobType, &r.Status,
		&deadline, &salary, &notes, &created, &updated, &tags, &r.Priority, &link,
		&contactName, &contactEmail, &followUp)
	if err != nil {
		return models.JobRow{}, err
	}

	r.Location = fromNullString(location)
	r.Notes = fromNullString(notes)
	r.ApplicationLink = fromNullString(link)
	r.ContactName = fromNullString(contactName)
	r.ContactEmail = fromNullString(contactEmail)
	if salary.Valid {
		v := salary.Float64
		r.Salary = &v
	}
	if r.Deadline, err = parseNullDate(deadline); err != nil {
		return models.JobRow{}, err
	}
	if r.FollowUpDate, err = parseNullDate(followUp); err != nil {
		return models.JobRow{}, err
	}
	if r.CreatedAt, err = parseTimestamp(created); err != nil {
		return models.JobRow{}, err
	}
	if r.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return models.JobRow{}, err
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &r.Tags); err != nil {
			return models.JobRow{}, fmt.Errorf("decoding tags of job %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// sqliteValue converts a patch value into its column encoding.
func sqliteValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string, float64:
		return val, nil
	case time.Time:
		return val.UTC().Format(dateLayout), nil
	case pq.StringArray:
		return encodeTags(val)
	default:
		return nil, fmt.Errorf("unsupported patch value %T", v)
	}
}

func encodeTags(tags pq.StringArray) (any, error) {
	if tags == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(tags))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toNullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func toNullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func toNullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
