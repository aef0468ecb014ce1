package unireservas

import (
	"encoding/json"
	"fmt"
)

// ProfileKind discriminates the two profile variants.
type ProfileKind string

const (
	KindStudent    ProfileKind = "student"
	KindAdvertiser ProfileKind = "advertiser"
)

// profileKindOf maps the userType values the backend has used over time
// ("cliente"/"anunciante" and "student"/"advertiser") onto a kind.
func profileKindOf(userType string) (ProfileKind, bool) {
	switch userType {
	case "student", "cliente":
		return KindStudent, true
	case "advertiser", "anunciante":
		return KindAdvertiser, true
	}
	return "", false
}

// ProfileBase holds the fields shared by both variants.
type ProfileBase struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	UserType     string `json:"userType"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

type StudentPreferences struct {
	Budget      string       `json:"budget,omitempty"`
	RoomType    PropertyType `json:"roomType,omitempty"`
	Amenities   []string     `json:"amenities,omitempty"`
	Location    string       `json:"location,omitempty"`
	MaxDistance float64      `json:"maxDistance,omitempty"`
}

type StudentProfile struct {
	ProfileBase
	University         string             `json:"university"`
	Course             string             `json:"course"`
	Semester           string             `json:"semester"`
	Bio                string             `json:"bio,omitempty"`
	Preferences        StudentPreferences `json:"preferences"`
	FavoriteProperties []string           `json:"favoriteProperties"`
}

type AdvertiserProfile struct {
	ProfileBase
	CompanyName     string   `json:"companyName"`
	CNPJ            string   `json:"cnpj"`
	Description     string   `json:"description"`
	Address         string   `json:"address"`
	Website         string   `json:"website,omitempty"`
	Verified        bool     `json:"verified"`
	Rating          float64  `json:"rating"`
	TotalProperties int      `json:"totalProperties"`
	Properties      []string `json:"properties"`
}

// Profile is a student or an advertiser profile. Exactly one of Student and
// Advertiser is set, matching Kind.
type Profile struct {
	Kind       ProfileKind
	Student    *StudentProfile
	Advertiser *AdvertiserProfile
}

// Base returns the shared fields of whichever variant is set.
func (p Profile) Base() ProfileBase {
	switch p.Kind {
	case KindStudent:
		if p.Student != nil {
			return p.Student.ProfileBase
		}
	case KindAdvertiser:
		if p.Advertiser != nil {
			return p.Advertiser.ProfileBase
		}
	}
	return ProfileBase{}
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var head struct {
		UserType string `json:"userType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	kind, ok := profileKindOf(head.UserType)
	if !ok {
		return fmt.Errorf("unknown profile userType %q", head.UserType)
	}

	switch kind {
	case KindStudent:
		var s StudentProfile
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Profile{Kind: kind, Student: &s}
	case KindAdvertiser:
		var a AdvertiserProfile
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*p = Profile{Kind: kind, Advertiser: &a}
	}
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case KindStudent:
		if p.Student != nil {
			return json.Marshal(p.Student)
		}
	case KindAdvertiser:
		if p.Advertiser != nil {
			return json.Marshal(p.Advertiser)
		}
	}
	return nil, fmt.Errorf("profile kind %q has no matching variant", p.Kind)
}

// ProfileUpdate is a partial profile update. Student-only and
// advertiser-only fields are sent as given; the server ignores fields that do
// not apply to the caller's kind.
type ProfileUpdate struct {
	Name         *string             `json:"name,omitempty"`
	Email        *string             `json:"email,omitempty"`
	Phone        *string             `json:"phone,omitempty"`
	ProfileImage *string             `json:"profileImage,omitempty"`
	University   *string             `json:"university,omitempty"`
	Course       *string             `json:"course,omitempty"`
	Semester     *string             `json:"semester,omitempty"`
	Bio          *string             `json:"bio,omitempty"`
	Preferences  *StudentPreferences `json:"preferences,omitempty"`
	CompanyName  *string             `json:"companyName,omitempty"`
	CNPJ         *string             `json:"cnpj,omitempty"`
	Description  *string             `json:"description,omitempty"`
	Address      *string             `json:"address,omitempty"`
	Website      *string             `json:"website,omitempty"`
}
