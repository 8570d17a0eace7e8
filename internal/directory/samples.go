package directory

import "github.com/notepid/club_companion/internal/domain"

// SampleClubs is shown when the club list cannot be fetched.
var SampleClubs = []domain.Club{
	{
		ID:          1,
		Name:        "Gator Robotics",
		Description: "Design, build and compete with autonomous robots.",
		Interests:   []string{"Technology", "Science"},
		MemberCount: 42,
	},
	{
		ID:          2,
		Name:        "Campus Chess Club",
		Description: "Weekly casual games, lessons and tournaments for every level.",
		Interests:   []string{"Gaming", "Academic"},
		MemberCount: 18,
	},
	{
		ID:          3,
		Name:        "Swamp Runners",
		Description: "Group runs around campus and training for local races.",
		Interests:   []string{"Sports", "Health"},
		MemberCount: 75,
	},
	{
		ID:          4,
		Name:        "Global Voices",
		Description: "Language exchange and cultural evenings with students from everywhere.",
		Interests:   []string{"Cultural", "Language", "Social"},
		MemberCount: 33,
	},
}
