package models

// Counter is an attendance tally of a user, e.g. labs passed out of labs needed.
type Counter struct {
	CounterName string `json:"counter_name"`
	Value       int    `json:"value"`
	MaxValue    int    `json:"max_value"`
}

// UserData is the full profile returned by users/me/ and users/{username}/.
type UserData struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	Staff           bool      `json:"staff"`
	Superuser       bool      `json:"is_superuser"`
	Balance         float64   `json:"balance"`
	Certificates    float64   `json:"certificates"`
	ExpectedPenalty float64   `json:"expected_penalty"`
	Counters        []Counter `json:"counters"`
	Party           int       `json:"party"`
	Grade           int       `json:"grade"`
	IsActive        bool      `json:"is_active"`
	Avatar          string    `json:"avatar,omitempty"`
	// NextLecturePenalty is what the next missed lecture will cost.
	NextLecturePenalty float64    `json:"next_missed_lecture_penalty"`
	Badge              *BadgeData `json:"badge,omitempty"`
}

// UserListItem is the short form of a user used in listings.
type UserListItem struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Party    int     `json:"party"`
	Staff    bool    `json:"staff"`
	Balance  float64 `json:"balance"`
}

// Statistics summarises balances of active pioneers.
type Statistics struct {
	AvgBalance   float64 `json:"avg_balance"`
	TotalBalance float64 `json:"total_balance"`
}

// ImportResult is returned by the bulk user import endpoints.
type ImportResult struct {
	Message       string   `json:"message"`
	ImportedUsers []string `json:"imported_users"`
	Errors        []string `json:"errors"`
}

// TaxResult is returned when the daily tax is charged.
type TaxResult struct {
	Message       string `json:"message"`
	TransactionID uint   `json:"transaction_id,omitempty"`
}

// Counter returns the counter with the given name and whether it was found.
func (u UserData) Counter(name string) (Counter, bool) {
	for _, c := range u.Counters {
		if c.CounterName == name {
			return c, true
		}
	}
	return Counter{}, false
}

// UserCreate is the body of POST users/. Empty Username is generated from
// the name, empty Password falls back to the server default.
type UserCreate struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	MiddleName string `json:"middle_name"`
	Party      int    `json:"party"`
	Grade      int    `json:"grade"`
	Staff      bool   `json:"is_staff"`
	Superuser  bool   `json:"is_superuser"`
}

// UserUpdate is the body of PUT users/{id}. Nil and empty fields are left as they are.
type UserUpdate struct {
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	Party      *int   `json:"party,omitempty"`
	Grade      *int   `json:"grade,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
	Staff      *bool  `json:"is_staff,omitempty"`
	Superuser  *bool  `json:"is_superuser,omitempty"`
}

// Empty reports whether u changes nothing.
func (u UserUpdate) Empty() bool {
	return u == UserUpdate{}
}
