package ledger

import "gitlab.com/lfmsh/bank/models"

// Study requirements and the fines for missing them, in bucks.
const (
	SeminarNotReadPenalty = 50
	LabPenalty            = 30
	FacPenalty            = 30

	ObligatoryStudyNeeded        = 4
	ObligatoryStudyNeededEquator = 2
	ObligatoryStudyInitialStep   = 5
	ObligatoryStudyStep          = 5

	// A missed lecture costs LecturePenaltyInitial plus LecturePenaltyStep
	// for every lecture missed before it.
	LecturePenaltyInitial = 10
	LecturePenaltyStep    = 10

	LabPassNeededEquator = 1
	defaultLabPassNeeded = 2
	defaultFacPassNeeded = 1

	LecturesNeeded = 10
	SeminarsNeeded = 4
	FacNeeded      = 1

	DailyTaxAmount = 1.0
)

// Counter names reported in a profile.
const (
	CounterLectures = "lec"
	CounterSeminars = "sem"
	CounterLabs     = "lab"
	CounterFacs     = "fac"
)

// LabPassNeeded is the number of labs a pioneer of a given grade must pass.
var LabPassNeeded = map[int]int{5: 2, 6: 2, 7: 3, 8: 3}

// FacPassNeeded is the number of electives a pioneer of a given grade must pass.
var FacPassNeeded = map[int]int{5: 1, 6: 1, 7: 1, 8: 1}

// transitions lists the states each state may move to.
var transitions = map[models.TransactionState][]models.TransactionState{
	models.StateCreated:     {models.StateProcessed, models.StateDeclined},
	models.StateProcessed:   {models.StateSubstituted},
	models.StateDeclined:    {},
	models.StateSubstituted: {},
}

// CanTransition reports whether a transaction in state from may move to to.
func CanTransition(from, to models.TransactionState) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
