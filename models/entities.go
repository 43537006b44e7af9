package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// User is the stored account of a pioneer or a staff member.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;size:256"`
	PasswordHash string
	FirstName    string
	LastName     string
	MiddleName   string
	Party        int
	Grade        int
	Staff        bool
	Superuser    bool
	IsActive     bool `gorm:"default:true"`
	Balance      float64
	Certificates float64
	LabCount     int
	LecCount     int
	SemCount     int
	FacCount     int
	SeminarsRead int
	LecMissed    int
	Avatar       string
	BadgeID      *uint `gorm:"index"`
}

// Privileged reports whether u is staff or a superuser.
func (u User) Privileged() bool {
	return u.Staff || u.Superuser
}

// LongName is "Last First".
func (u User) LongName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", u.LastName, u.FirstName))
}

// ShortName is "Last F. M." when both initials are known.
func (u User) ShortName() string {
	first, middle := []rune(u.FirstName), []rune(u.MiddleName)
	if len(first) > 0 && len(middle) > 0 {
		return fmt.Sprintf("%s %c. %c.", u.LastName, first[0], middle[0])
	}
	return u.LastName
}

// LedgerTransaction is a stored transaction with its recipient rows.
type LedgerTransaction struct {
	gorm.Model
	CreatorID   uint `gorm:"index"`
	Creator     User
	Type        TransactionType  `gorm:"size:32;index"`
	Description string           `gorm:"size:1000"`
	State       TransactionState `gorm:"size:16;index"`
	UpdateOfID  *uint
	Recipients  []Recipient `gorm:"foreignKey:TransactionID"`
}

// Recipient is a single row of a transaction. Counted rows have been applied to
// the user and must be undone before the transaction leaves the processed state.
type Recipient struct {
	gorm.Model
	TransactionID uint `gorm:"index"`
	UserID        uint `gorm:"index"`
	User          User
	Bucks         float64
	Certs         float64
	Lab           int
	Lec           int
	Sem           int
	Fac           int
	// Read marks the speaker row of a seminar transaction.
	Read    int
	LecMiss int
	Counted bool
}

// SeminarRecord keeps the jury evaluation of a talk.
type SeminarRecord struct {
	gorm.Model
	SpeakerID     uint `gorm:"index"`
	Speaker       User
	AuthorID      uint
	Author        User
	Block         string `gorm:"size:16"`
	Description   string
	Evaluation    string
	TotalScore    int
	Attendees     string
	TransactionID uint
}

// Badge is a title a superuser can hang next to a user's name.
type Badge struct {
	gorm.Model
	Name          string `gorm:"uniqueIndex;size:256"`
	Description   string
	ImageFilename string `gorm:"size:256"`
	IsActive      bool   `gorm:"default:true"`
}

// Entities lists every stored model, in migration order.
func Entities() []interface{} {
	return []interface{}{&Badge{}, &User{}, &LedgerTransaction{}, &Recipient{}, &SeminarRecord{}}
}
