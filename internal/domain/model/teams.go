package model

import "sort"

// Team is a team attending the event.
type Team struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

var roster = []Team{
	{379, "The RoboCats", "Girard, Ohio"},
	{547, "Falcon Engineering And Robotics", "Fayetteville, Tennessee"},
	{1038, "Lakota Robotics", "Liberty Township, Ohio"},
	{1369, "Minotaur", "Tampa, Florida"},
	{1445, "Webb Spark", "Knoxville, Tennessee"},
	{1466, "Webb Robotics", "Knoxville, Tennessee"},
	{2393, "Robotichauns", "Knoxville, Tennessee"},
	{2783, "Engineers of Tomorrow", "La Grange, Kentucky"},
	{2856, "Planetary Drive", "Lexington, Kentucky"},
	{3102, "Tech-No-Tigers", "Nevis, Minnesota"},
	{3138, "Innovators Robotics", "Englewood, Ohio"},
	{3140, "Flagship", "Knoxville, Tennessee"},
	{3492, "Putnam Area Robotics Team (P.A.R.T.s)", "Winfield, West Virginia"},
	{3814, "PiBotics", "Florence, Kentucky"},
	{3821, "Pirabots", "Belfry, Kentucky"},
	{3824, "HVA RoHAWKtics", "Knoxville, Tennessee"},
	{3843, "ROBO RACERS", "Murray, Kentucky"},
	{3959, "Mech Tech", "Somerville, Alabama"},
	{3966, "Gryphon Command", "Knoxville, Tennessee"},
	{3984, "Topper Robotics", "Johnson City, Tennessee"},
	{4013, "Clockwork Mania", "Orlando, Florida"},
	{4020, "Cyber Tribe", "Kingsport, Tennessee"},
	{4065, "Nerds of Prey", "Minneola, Florida"},
	{4265, "Secret City Wildbots", "Oak Ridge, Tennessee"},
	{4504, "B. C. Robotics", "Maryville, Tennessee"},
	{4576, "Red Nation Robotics", "Knoxville, Tennessee"},
	{4630, "Robodragons", "Clinton, Tennessee"},
	{5276, "Edgar Allan Ohms", "Tampa, Florida"},
	{5492, "Winner's Circle Robo Jockey's", "Louisville, Kentucky"},
	{5744, "RoboRunners", "Knoxville, Tennessee"},
	{6302, "Greeneville High School Robotics", "Greeneville, Tennessee"},
	{6517, "So-Kno Robo", "Knoxville, Tennessee"},
	{6774, "Oh-Kno Robo", "Knoxville, Tennessee"},
	{7111, "RAD Robotics", "Huntsville, Alabama"},
	{7428, "Gigawatts", "Fort Payne, Alabama"},
	{7516, "Louisville Centrons", "Louisville, Kentucky"},
	{7525, "Pioneers", "Nashville, Tennessee"},
	{7917, "Frontier", "Nashville, Tennessee"},
	{8778, "HSUWerx", "Fort Walton Beach, Florida"},
	{9097, "MachBusters", "Cincinnati, Ohio"},
	{9152, "Rat Fight", "Berea, Kentucky"},
	{9668, "West Robotics", "Knoxville, Tennessee"},
	{10137, "RoboKats", "Lexington, Kentucky"},
	{11275, "Defenders 1", "Lexington, Kentucky"},
	{11337, "Jackson FRC", "Jackson, Tennessee"},
}

var teamIndex map[int]Team

func init() {
	teamIndex = make(map[int]Team, len(roster))
	for _, t := range roster {
		teamIndex[t.Number] = t
	}
}

// Teams returns the event roster ordered by team number, one entry per team.
func Teams() []Team {
	out := make([]Team, 0, len(teamIndex))
	for _, t := range teamIndex {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// LookupTeam returns the roster entry for number.
func LookupTeam(number int) (Team, bool) {
	t, ok := teamIndex[number]
	return t, ok
}
