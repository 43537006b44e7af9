package ledger

import "gitlab.com/lfmsh/bank/models"

func labNeeded(grade int) int {
	if n, ok := LabPassNeeded[grade]; ok {
		return n
	}
	return defaultLabPassNeeded
}

func facNeeded(grade int) int {
	if n, ok := FacPassNeeded[grade]; ok {
		return n
	}
	return defaultFacPassNeeded
}

// obligatoryStudyFine charges a growing step for every missing seminar or
// elective: 5, then 10, then 15 and so on.
func obligatoryStudyFine(attended, needed int) float64 {
	deficit := needed - attended
	if deficit < 0 {
		deficit = 0
	}
	fine, step := 0, ObligatoryStudyInitialStep
	for i := 0; i < deficit; i++ {
		fine += step
		step += ObligatoryStudyStep
	}
	return float64(fine)
}

func shortfall(needed, have int) int {
	if have >= needed {
		return 0
	}
	return needed - have
}

// ExpectedPenalty is the fine a pioneer would get if the session ended now.
func ExpectedPenalty(u models.User) float64 {
	if u.Staff || u.Superuser {
		return 0
	}
	return float64(SeminarNotReadPenalty*shortfall(1, u.SeminarsRead)) +
		obligatoryStudyFine(u.SemCount+u.FacCount, ObligatoryStudyNeeded) +
		float64(LabPenalty*shortfall(labNeeded(u.Grade), u.LabCount)) +
		float64(FacPenalty*shortfall(facNeeded(u.Grade), u.FacCount))
}

// EquatorPenalty is the mid-session fine: half of the study plan and one lab.
func EquatorPenalty(u models.User) float64 {
	if u.Staff || u.Superuser {
		return 0
	}
	return obligatoryStudyFine(u.SemCount+u.FacCount, ObligatoryStudyNeededEquator) +
		float64(LabPenalty*shortfall(LabPassNeededEquator, u.LabCount))
}

// NextMissedLecturePenalty is the fine for the next lecture u misses.
func NextMissedLecturePenalty(u models.User) float64 {
	return float64(u.LecMissed*LecturePenaltyStep + LecturePenaltyInitial)
}

// Counters reports attendance of u against the session requirements.
func Counters(u models.User) []models.Counter {
	return []models.Counter{
		{CounterName: CounterLectures, Value: u.LecCount, MaxValue: LecturesNeeded},
		{CounterName: CounterSeminars, Value: u.SemCount, MaxValue: SeminarsNeeded},
		{CounterName: CounterLabs, Value: u.LabCount, MaxValue: labNeeded(u.Grade)},
		{CounterName: CounterFacs, Value: u.FacCount, MaxValue: FacNeeded},
	}
}
