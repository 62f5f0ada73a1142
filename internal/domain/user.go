package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxPictures = 6
	MaxPrompts  = 3

	// Placeholder values written when a verified contact first signs in.
	PlaceholderFirstName = "User"
	PlaceholderEnum      = "Unspecified"
)

// PlaceholderDOB is the birth date stored on a minimal user record.
var PlaceholderDOB = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

type User struct {
	ID               uuid.UUID `json:"id"`
	PhoneNumber      *string   `json:"phone_number"`
	Email            *string   `json:"email"`
	EmailVerified    bool      `json:"email_verified"`
	ProfileCompleted bool      `json:"profile_completed"`
	FirstName        string    `json:"first_name"`
	LastName         *string   `json:"last_name"`
	DOB              time.Time `json:"dob"`
	Pronouns         *string   `json:"pronouns"`
	Gender           string    `json:"gender"`
	Sex              string    `json:"sex"`
	InterestedIn     string    `json:"interested_in"`
	DatingIntentions *string   `json:"dating_intentions"`
	RelationshipType *string   `json:"relationship_type"`
	Height           *int      `json:"height"`
	HasChildren      *bool     `json:"has_children"`
	FamilyPlans      *string   `json:"family_plans"`
	Hometown         *string   `json:"hometown"`
	Workplace        *string   `json:"workplace"`
	JobTitle         *string   `json:"job_title"`
	Education        *string   `json:"education"`
	EducationLevel   *string   `json:"education_level"`
	Religion         *string   `json:"religion"`
	Drink            *bool     `json:"drink"`
	Smoke            *bool     `json:"smoke"`
	Weed             *bool     `json:"weed"`
	Drugs            *bool     `json:"drugs"`
	Pictures         []string  `json:"pictures"`
	Prompts          []string  `json:"prompts"`
	VoicePrompt      *string   `json:"voice_prompt"`
	Location         *Location `json:"location"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewMinimalUser builds the record created the first time a contact is verified.
func NewMinimalUser(phone, email *string, emailVerified bool) *User {
	return &User{
		ID:            uuid.New(),
		PhoneNumber:   phone,
		Email:         email,
		EmailVerified: emailVerified,
		FirstName:     PlaceholderFirstName,
		DOB:           PlaceholderDOB,
		Gender:        PlaceholderEnum,
		Sex:           PlaceholderEnum,
		InterestedIn:  PlaceholderEnum,
		Pictures:      []string{},
		Prompts:       []string{},
	}
}

// Age returns full years at the given time.
func (u *User) Age(now time.Time) int {
	years := now.Year() - u.DOB.Year()
	if now.YearDay() < u.DOB.YearDay() {
		years--
	}
	return years
}

// Public returns the projection other users are allowed to see.
func (u *User) Public() *PublicProfile {
	return &PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		DOB:       u.DOB,
		Gender:    u.Gender,
		Pictures:  u.Pictures,
		Prompts:   u.Prompts,
		JobTitle:  u.JobTitle,
		Workplace: u.Workplace,
		Education: u.Education,
		Hometown:  u.Hometown,
	}
}

// PublicProfile is the fixed profile projection joined into likes and matches.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name"`
	DOB       time.Time `json:"dob"`
	Gender    string    `json:"gender"`
	Pictures  []string  `json:"pictures"`
	Prompts   []string  `json:"prompts"`
	JobTitle  *string   `json:"job_title"`
	Workplace *string   `json:"workplace"`
	Education *string   `json:"education"`
	Hometown  *string   `json:"hometown"`
}
