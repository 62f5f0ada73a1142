package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/grapeapp/grape-backend/internal/domain"
)

const userColumns = `
	id, phone_number, email, email_verified, profile_completed,
	first_name, last_name, dob, pronouns, gender, sex, interested_in,
	dating_intentions, relationship_type, height, has_children, family_plans,
	hometown, workplace, job_title, education, education_level, religion,
	drink, smoke, weed, drugs, pictures, prompts, voice_prompt,
	ST_Y(location::geometry) AS latitude, ST_X(location::geometry) AS longitude,
	created_at, updated_at`

// publicProfileColumns must stay aligned with profileRow.
const publicProfileColumns = `
	u.id, u.first_name, u.last_name, u.dob, u.gender, u.pictures, u.prompts,
	u.job_title, u.workplace, u.education, u.hometown`

type userRow struct {
	ID               uuid.UUID      `db:"id"`
	PhoneNumber      *string        `db:"phone_number"`
	Email            *string        `db:"email"`
	EmailVerified    bool           `db:"email_verified"`
	ProfileCompleted bool           `db:"profile_completed"`
	FirstName        string         `db:"first_name"`
	LastName         *string        `db:"last_name"`
	DOB              time.Time      `db:"dob"`
	Pronouns         *string        `db:"pronouns"`
	Gender           string         `db:"gender"`
	Sex              string         `db:"sex"`
	InterestedIn     string         `db:"interested_in"`
	DatingIntentions *string        `db:"dating_intentions"`
	RelationshipType *string        `db:"relationship_type"`
	Height           *int           `db:"height"`
	HasChildren      *bool          `db:"has_children"`
	FamilyPlans      *string        `db:"family_plans"`
	Hometown         *string        `db:"hometown"`
	Workplace        *string        `db:"workplace"`
	JobTitle         *string        `db:"job_title"`
	Education        *string        `db:"education"`
	EducationLevel   *string        `db:"education_level"`
	Religion         *string        `db:"religion"`
	Drink            *bool          `db:"drink"`
	Smoke            *bool          `db:"smoke"`
	Weed             *bool          `db:"weed"`
	Drugs            *bool          `db:"drugs"`
	Pictures         pq.StringArray `db:"pictures"`
	Prompts          pq.StringArray `db:"prompts"`
	VoicePrompt      *string        `db:"voice_prompt"`
	Latitude         *float64       `db:"latitude"`
	Longitude        *float64       `db:"longitude"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	u := &domain.User{
		ID:               r.ID,
		PhoneNumber:      r.PhoneNumber,
		Email:            r.Email,
		EmailVerified:    r.EmailVerified,
		ProfileCompleted: r.ProfileCompleted,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		DOB:              r.DOB,
		Pronouns:         r.Pronouns,
		Gender:           r.Gender,
		Sex:              r.Sex,
		InterestedIn:     r.InterestedIn,
		DatingIntentions: r.DatingIntentions,
		RelationshipType: r.RelationshipType,
		Height:           r.Height,
		HasChildren:      r.HasChildren,
		FamilyPlans:      r.FamilyPlans,
		Hometown:         r.Hometown,
		Workplace:        r.Workplace,
		JobTitle:         r.JobTitle,
		Education:        r.Education,
		EducationLevel:   r.EducationLevel,
		Religion:         r.Religion,
		Drink:            r.Drink,
		Smoke:            r.Smoke,
		Weed:             r.Weed,
		Drugs:            r.Drugs,
		Pictures:         nonNil(r.Pictures),
		Prompts:          nonNil(r.Prompts),
		VoicePrompt:      r.VoicePrompt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Latitude != nil && r.Longitude != nil {
		u.Location = &domain.Location{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return u
}

type profileRow struct {
	ID        uuid.UUID      `db:"id"`
	FirstName string         `db:"first_name"`
	LastName  *string        `db:"last_name"`
	DOB       time.Time      `db:"dob"`
	Gender    string         `db:"gender"`
	Pictures  pq.StringArray `db:"pictures"`
	Prompts   pq.StringArray `db:"prompts"`
	JobTitle  *string        `db:"job_title"`
	Workplace *string        `db:"workplace"`
	Education *string        `db:"education"`
	Hometown  *string        `db:"hometown"`
}

func (p *profileRow) toDomain() *domain.PublicProfile {
	return &domain.PublicProfile{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		DOB:       p.DOB,
		Gender:    p.Gender,
		Pictures:  nonNil(p.Pictures),
		Prompts:   nonNil(p.Prompts),
		JobTitle:  p.JobTitle,
		Workplace: p.Workplace,
		Education: p.Education,
		Hometown:  p.Hometown,
	}
}

func nonNil(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

type userRepository struct {
	db sqlx.ExtContext
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, phone_number, email, email_verified, first_name, dob, gender, sex, interested_in, pictures, prompts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.PhoneNumber, user.Email, user.EmailVerified,
		user.FirstName, user.DOB, user.Gender, user.Sex, user.InterestedIn,
		stringArray(user.Pictures), stringArray(user.Prompts),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if err := sqlx.GetContext(ctx, r.db, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, `phone_number = $1`, phone)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `lower(email) = lower($1)`, email)
}

func (r *userRepository) CountExisting(ctx context.Context, ids ...uuid.UUID) (int, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM users WHERE id = ANY($1::uuid[])`, pq.Array(strIDs))
	return count, mapError(err)
}

// ApplyPatch sets only the columns present in patch, so concurrent writes to
// other columns such as email or location survive.
func (r *userRepository) ApplyPatch(ctx context.Context, id uuid.UUID, patch *domain.ProfilePatch, markComplete bool) (*domain.User, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	trimmed := func(col string, v *string) {
		if v != nil {
			set(col, strings.TrimSpace(*v))
		}
	}
	trimmed("first_name", patch.FirstName)
	trimmed("gender", patch.Gender)
	trimmed("sex", patch.Sex)
	trimmed("interested_in", patch.InterestedIn)
	if patch.DOB != nil {
		dob, err := time.Parse(domain.DateLayout, *patch.DOB)
		if err != nil {
			return nil, err
		}
		set("dob", dob)
	}

	for _, f := range []struct {
		col string
		v   *string
	}{
		{"last_name", patch.LastName},
		{"pronouns", patch.Pronouns},
		{"dating_intentions", patch.DatingIntentions},
		{"relationship_type", patch.RelationshipType},
		{"family_plans", patch.FamilyPlans},
		{"hometown", patch.Hometown},
		{"workplace", patch.Workplace},
		{"job_title", patch.JobTitle},
		{"education", patch.Education},
		{"education_level", patch.EducationLevel},
		{"religion", patch.Religion},
		{"voice_prompt", patch.VoicePrompt},
	} {
		if f.v != nil {
			set(f.col, *f.v)
		}
	}
	for _, f := range []struct {
		col string
		v   *bool
	}{
		{"has_children", patch.HasChildren},
		{"drink", patch.Drink},
		{"smoke", patch.Smoke},
		{"weed", patch.Weed},
		{"drugs", patch.Drugs},
	} {
		if f.v != nil {
			set(f.col, *f.v)
		}
	}
	if patch.Height != nil {
		set("height", *patch.Height)
	}
	if patch.Pictures != nil {
		set("pictures", stringArray(*patch.Pictures))
	}
	if patch.Prompts != nil {
		set("prompts", stringArray(*patch.Prompts))
	}
	if patch.Latitude != nil && patch.Longitude != nil {
		args = append(args, *patch.Longitude, *patch.Latitude)
		sets = append(sets, fmt.Sprintf(
			"location = ST_SetSRID(ST_MakePoint($%d::float8, $%d::float8), 4326)::geography",
			len(args)-1, len(args)))
	}
	if markComplete {
		set("profile_completed", true)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	var row userRow
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

func (r *userRepository) SetEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error {
	query := `UPDATE users SET email = $2, email_verified = $3, updated_at = NOW() WHERE id = $1`
	return execExpectingRow(ctx, r.db, domain.ErrUserNotFound, query, id, email, verified)
}

func (r *userRepository) UpdateLocation(ctx context.Context, id uuid.UUID, loc domain.Location) error {
	query := `
		UPDATE users
		SET location = ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, updated_at = NOW()
		WHERE id = $1
	`
	return execExpectingRow(ctx, r.db, domain.ErrUserNotFound, query, id, loc.Longitude, loc.Latitude)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execExpectingRow(ctx, r.db, domain.ErrUserNotFound, `DELETE FROM users WHERE id = $1`, id)
}

// execExpectingRow runs a statement and returns notFound when it touched no rows.
func execExpectingRow(ctx context.Context, db sqlx.ExecerContext, notFound error, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// stringArray keeps empty lists as '{}' rather than NULL.
func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}
