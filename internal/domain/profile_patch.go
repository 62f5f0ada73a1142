package domain

import (
	"reflect"
	"strings"
	"time"

	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

const DateLayout = "2006-01-02"

// ProfilePatch carries the profile fields a client wants to change.
// Nil fields are left untouched.
type ProfilePatch struct {
	FirstName        *string   `json:"first_name"`
	LastName         *string   `json:"last_name"`
	DOB              *string   `json:"dob"`
	Pronouns         *string   `json:"pronouns"`
	Gender           *string   `json:"gender"`
	Sex              *string   `json:"sex"`
	InterestedIn     *string   `json:"interested_in"`
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
	Pictures         *[]string `json:"pictures"`
	Prompts          *[]string `json:"prompts"`
	VoicePrompt      *string   `json:"voice_prompt"`
	Latitude         *float64  `json:"latitude"`
	Longitude        *float64  `json:"longitude"`
}

// Empty reports whether no field is set.
func (p *ProfilePatch) Empty() bool {
	v := reflect.ValueOf(p).Elem()
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).IsNil() {
			return false
		}
	}
	return true
}

// Validate checks the patch without touching storage.
func (p *ProfilePatch) Validate(now time.Time) error {
	if p.Pictures != nil && len(*p.Pictures) > MaxPictures {
		return ErrTooManyPictures
	}
	if p.Prompts != nil && len(*p.Prompts) > MaxPrompts {
		return ErrTooManyPrompts
	}

	required := []struct {
		name  string
		value *string
	}{
		{"first_name", p.FirstName},
		{"gender", p.Gender},
		{"sex", p.Sex},
		{"interested_in", p.InterestedIn},
	}
	for _, f := range required {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return svcErr.Validation(f.name + " cannot be empty")
		}
	}

	if p.DOB != nil {
		dob, err := time.Parse(DateLayout, *p.DOB)
		if err != nil {
			return svcErr.Validation("dob must be formatted as YYYY-MM-DD")
		}
		if dob.After(now) {
			return svcErr.Validation("dob cannot be in the future")
		}
	}
	if p.Height != nil && (*p.Height < 50 || *p.Height > 275) {
		return svcErr.Validation("height must be between 50 and 275 cm")
	}

	if (p.Latitude == nil) != (p.Longitude == nil) {
		return svcErr.Validation("latitude and longitude must be provided together")
	}
	if p.Latitude != nil && !(Location{Latitude: *p.Latitude, Longitude: *p.Longitude}).Valid() {
		return ErrInvalidLocation
	}
	return nil
}

// ApplyTo copies the set fields onto u. Validate must have passed.
func (p *ProfilePatch) ApplyTo(u *User) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&u.FirstName, p.FirstName)
	setString(&u.Gender, p.Gender)
	setString(&u.Sex, p.Sex)
	setString(&u.InterestedIn, p.InterestedIn)

	if p.DOB != nil {
		u.DOB, _ = time.Parse(DateLayout, *p.DOB)
	}

	optional := []struct {
		dst **string
		src *string
	}{
		{&u.LastName, p.LastName},
		{&u.Pronouns, p.Pronouns},
		{&u.DatingIntentions, p.DatingIntentions},
		{&u.RelationshipType, p.RelationshipType},
		{&u.FamilyPlans, p.FamilyPlans},
		{&u.Hometown, p.Hometown},
		{&u.Workplace, p.Workplace},
		{&u.JobTitle, p.JobTitle},
		{&u.Education, p.Education},
		{&u.EducationLevel, p.EducationLevel},
		{&u.Religion, p.Religion},
		{&u.VoicePrompt, p.VoicePrompt},
	}
	for _, f := range optional {
		if f.src != nil {
			v := *f.src
			*f.dst = &v
		}
	}

	for _, f := range []struct {
		dst **bool
		src *bool
	}{
		{&u.HasChildren, p.HasChildren},
		{&u.Drink, p.Drink},
		{&u.Smoke, p.Smoke},
		{&u.Weed, p.Weed},
		{&u.Drugs, p.Drugs},
	} {
		if f.src != nil {
			v := *f.src
			*f.dst = &v
		}
	}

	if p.Height != nil {
		h := *p.Height
		u.Height = &h
	}
	if p.Pictures != nil {
		u.Pictures = append([]string{}, (*p.Pictures)...)
	}
	if p.Prompts != nil {
		u.Prompts = append([]string{}, (*p.Prompts)...)
	}
	if p.Latitude != nil && p.Longitude != nil {
		u.Location = &Location{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
}
