package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// CandidateProfile is the structured candidate record derived from resume
// text. It is never nil: extraction failures produce an empty profile.
type CandidateProfile struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	YearsOfExperience string   `json:"years_of_experience"`
	Skills            []string `json:"skills"`
	Summary           string   `json:"summary"`
}

func EmptyCandidateProfile() CandidateProfile {
	return CandidateProfile{Skills: []string{}}
}

// StringsToJSON serializes a string list into a JSON column value.
func StringsToJSON(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// JSONToStrings decodes a JSON column into a string list; unreadable values
// yield an empty list.
func JSONToStrings(data datatypes.JSON) []string {
	if len(data) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return []string{}
	}
	return values
}

// ProfileToJSON serializes a candidate profile for the snapshot column.
func ProfileToJSON(profile CandidateProfile) datatypes.JSON {
	data, err := json.Marshal(profile)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}
