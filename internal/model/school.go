package model

// School is an entry in the static school lookup table.
type School struct {
	ID   string
	Name string
}

// DefaultSchoolID is used for payment creation and status lookups when the
// caller does not pick a school.
const DefaultSchoolID = "65b0e6293e9f76a9694d84b4"

// Schools is the fixed list of schools known to the dashboard.
var Schools = []School{
	{ID: "65b0e6293e9f76a9694d84b4", Name: "Delhi Public School"},
	{ID: "65b0e6293e9f76a9694d84b5", Name: "St. Mary's School"},
	{ID: "65b0e6293e9f76a9694d84b6", Name: "Kendriya Vidyalaya"},
	{ID: "65b0e6293e9f76a9694d84b7", Name: "Ryan International School"},
	{ID: "65b0e6293e9f76a9694d84b8", Name: "DAV Public School"},
}

var schoolNames = func() map[string]string {
	names := make(map[string]string, len(Schools))
	for _, s := range Schools {
		names[s.ID] = s.Name
	}
	return names
}()

// SchoolName returns the display name for id, or id itself when unknown.
func SchoolName(id string) string {
	if name, ok := schoolNames[id]; ok {
		return name
	}
	return id
}

// IsKnownSchool reports whether id is in the static table.
func IsKnownSchool(id string) bool {
	_, ok := schoolNames[id]
	return ok
}
