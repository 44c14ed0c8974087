package domain

import "strings"

// DayOfWeek encapsulates the allowed reservation days using lowercase english names as per REST responses.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// WeekDays lists the seven days in the order the console renders them.
var WeekDays = [7]DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var allowedDays = map[string]DayOfWeek{
	string(Monday):    Monday,
	string(Tuesday):   Tuesday,
	string(Wednesday): Wednesday,
	string(Thursday):  Thursday,
	string(Friday):    Friday,
	string(Saturday):  Saturday,
	string(Sunday):    Sunday,
}

// ParseDay converts arbitrary casing and spacing into a canonical day, reporting
// whether the input named a real weekday.
func ParseDay(value string) (DayOfWeek, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	day, ok := allowedDays[key]
	return day, ok
}

// NormalizeDay is the lenient variant used when projecting REST payloads; unknown
// values collapse to the empty day.
func NormalizeDay(value any) DayOfWeek {
	typed, ok := value.(string)
	if !ok {
		return ""
	}
	day, _ := ParseDay(typed)
	return day
}

// Valid reports whether the day is one of the seven canonical names.
func (d DayOfWeek) Valid() bool {
	_, ok := allowedDays[string(d)]
	return ok
}
