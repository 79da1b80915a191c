package onboarding

import "math"

// RouteDashboard is where a finished flow sends the user.
const RouteDashboard = "/dashboard"

var routes = map[State]string{
	StateStart:             "/onboarding",
	StateOrganizationSetup: "/onboarding/organization",
	StateProfileSetup:      "/onboarding/profile",
	StatePreferences:       "/onboarding/preferences",
	StateCompleted:         RouteDashboard,
	StateError:             "/onboarding/error",
}

// Route maps a state to the location the UI should show. Unknown states map
// to the flow entry point.
func Route(s State) string {
	if r, ok := routes[s]; ok {
		return r
	}
	return routes[StateStart]
}

// Progress summarizes how far the user is.
type Progress struct {
	Current     int  `json:"current"`
	Total       int  `json:"total"`
	Percentage  int  `json:"percentage"`
	IsFirstStep bool `json:"isFirstStep"`
	IsLastStep  bool `json:"isLastStep"`
}

// ProgressOf derives Progress from the context counters only.
func ProgressOf(c Context) Progress {
	p := Progress{Current: c.CurrentStep, Total: c.TotalSteps}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Current) / float64(p.Total) * 100))
	}
	p.IsFirstStep = p.Current <= 1
	p.IsLastStep = p.Total > 0 && p.Current >= p.Total
	return p
}
