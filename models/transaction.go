package models

import "time"

// TransactionState is the lifecycle state of a ledger transaction.
type TransactionState string

const (
	StateCreated     TransactionState = "created"
	StateProcessed   TransactionState = "processed"
	StateDeclined    TransactionState = "declined"
	StateSubstituted TransactionState = "substituted"
)

// TransactionType names what a transaction was issued for.
type TransactionType string

const (
	TypeP2P       TransactionType = "p2p"
	TypeFine      TransactionType = "fine"
	TypeActivity  TransactionType = "activity"
	TypeSeminar   TransactionType = "seminar"
	TypeLecture   TransactionType = "lecture"
	TypeTable     TransactionType = "table"
	TypeFacAttend TransactionType = "fac_attend"
	TypeFacPass   TransactionType = "fac_pass"
	TypeLab       TransactionType = "lab"
	TypeLabPass   TransactionType = "lab_pass"
	TypeLecAttend TransactionType = "lec_attend"
	TypeSemAttend TransactionType = "sem_attend"
	TypeLecMiss   TransactionType = "lec_miss"
	TypeWorkout   TransactionType = "workout"
	TypePurchase  TransactionType = "purchase"
	TypeGeneral   TransactionType = "general"
	TypeDS        TransactionType = "ds"
	TypeExam      TransactionType = "exam"
	TypeTax       TransactionType = "tax"
)

// TransactionTypes lists every known type in display order.
var TransactionTypes = []TransactionType{
	TypeP2P, TypeFine, TypeActivity, TypeSeminar, TypeLecture, TypeTable,
	TypeFacAttend, TypeFacPass, TypeLab, TypeLabPass, TypeLecAttend, TypeSemAttend, TypeLecMiss,
	TypeWorkout, TypePurchase, TypeGeneral, TypeDS, TypeExam, TypeTax,
}

// TypeLabels are the titles shown next to a type in listings.
var TypeLabels = map[TransactionType]string{
	TypeP2P:       "Перевод",
	TypeFine:      "Штраф",
	TypeActivity:  "Деятельность",
	TypeSeminar:   "Семинар",
	TypeLecture:   "Лекция",
	TypeFacPass:   "Зачет по факультативу",
	TypeLab:       "Лабораторная",
	TypeDS:        "Дежурство",
	TypeExam:      "Экзамен",
	TypeGeneral:   "Общее начисление",
	TypePurchase:  "Покупка",
	TypeTax:       "Налог",
	TypeFacAttend: "Посещение факультатива",
	TypeLecAttend: "Посещение лекции",
	TypeSemAttend: "Посещение семинара",
	TypeLabPass:   "Зачет по лабораторной",
	TypeLecMiss:   "Пропуск лекции",
}

// Label returns the display title of the type, falling back to its code.
func (t TransactionType) Label() string {
	if label, ok := TypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsAttendance reports whether the type moves an attendance counter instead of bucks.
func (t TransactionType) IsAttendance() bool {
	switch t {
	case TypeFacAttend, TypeLecAttend, TypeSemAttend, TypeLabPass:
		return true
	}
	return false
}

// AmountImplied reports whether the server decides the row values, so a
// recipient is given without an amount.
func (t TransactionType) AmountImplied() bool {
	return t.IsAttendance() || t == TypeLecMiss
}

// Receiver is one recipient row of a transaction as rendered by the API.
type Receiver struct {
	Username string  `json:"username"`
	Bucks    float64 `json:"bucks"`
	Certs    float64 `json:"certs"`
	Lab      int     `json:"lab"`
	Lec      int     `json:"lec"`
	Sem      int     `json:"sem"`
	Fac      int     `json:"fac"`
	LecMiss  int     `json:"lec_miss,omitempty"`
}

type Transaction struct {
	ID          uint             `json:"id"`
	Author      string           `json:"author"`
	Description string           `json:"description"`
	Type        TransactionType  `json:"type"`
	Status      TransactionState `json:"status"`
	DateCreated time.Time        `json:"date_created"`
	UpdateOf    *uint            `json:"update_of,omitempty"`
	Receivers   []Receiver       `json:"receivers"`
}

// TotalBucks sums the bucks of every receiver.
func (t Transaction) TotalBucks() float64 {
	var total float64
	for _, r := range t.Receivers {
		total += r.Bucks
	}
	return total
}

// TransactionRecipient is one receiver of a transaction being created.
type TransactionRecipient struct {
	ID     uint    `json:"id" binding:"required"`
	Amount float64 `json:"amount"`
}

// TransactionCreate is the body of transactions/create/. UpdateOf replaces an
// earlier transaction of the same author and type.
type TransactionCreate struct {
	Type        TransactionType        `json:"type" binding:"required"`
	Description string                 `json:"description"`
	Recipients  []TransactionRecipient `json:"recipients" binding:"required,min=1,dive"`
	UpdateOf    *uint                  `json:"update_of,omitempty"`
}
