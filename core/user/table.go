package user

import (
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dropout/core"
)

// Table is the full record set of the backing file, held in memory for one interaction.
// Mutations only touch memory; the Repository persists them on Save.
type Table struct {
	// Columns is the header, in file order; unknown columns are kept.
	Columns []string
	Users   []User
}

// NewTable returns a table with the required columns only.
func NewTable(users ...User) *Table {
	cols := make([]string, len(RequiredColumns))
	copy(cols, RequiredColumns)
	return &Table{Columns: cols, Users: users}
}

// Authenticate returns the first user whose username and password both match.
func (t *Table) Authenticate(uname, pwd string) (User, bool) {
	for _, usr := range t.Users {
		if usr.Username == uname && usr.CheckPassword(pwd) {
			return usr, true
		}
	}
	return User{}, false
}

// Find returns the users of the given role whose student ID, username or full name
// contains query, ignoring case. A blank query matches every user of the role.
func (t *Table) Find(role Role, query string) []User {
	query = core.CleanString(query, true /* lower */)
	found := make([]User, 0)
	for _, usr := range t.Users {
		if usr.Role != role {
			continue
		}
		if query == "" || matches(usr, query) {
			found = append(found, usr)
		}
	}
	return found
}

func matches(usr User, lowerQuery string) bool {
	var id string
	if usr.StudentID.Valid {
		id = strconv.Itoa(usr.StudentID.Int)
	}
	return strings.Contains(id, lowerQuery) ||
		strings.Contains(strings.ToLower(usr.Username), lowerQuery) ||
		strings.Contains(strings.ToLower(usr.FullName), lowerQuery)
}

// Get returns the first user with the given username.
func (t *Table) Get(uname string) (User, error) {
	if i := t.indexOf(uname); i >= 0 {
		return t.Users[i], nil
	}
	return User{}, ErrNotFound
}

// GetStudent returns the first student with the given student ID.
func (t *Table) GetStudent(studentID int) (User, error) {
	for _, usr := range t.Users {
		if usr.IsStudent() && usr.StudentID.Valid && usr.StudentID.Int == studentID {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

// UpdateFields sets the signals of every row carrying studentID.
func (t *Table) UpdateFields(studentID int, f Fields) error {
	var updated bool
	for i := range t.Users {
		usr := &t.Users[i]
		if !usr.StudentID.Valid || usr.StudentID.Int != studentID {
			continue
		}
		usr.Attendance = null.Float64From(f.Attendance)
		usr.AvgGrade = null.Float64From(f.AvgGrade)
		usr.LMSActivity = null.IntFrom(f.LMSActivity)
		usr.FinancialAid = null.IntFrom(f.FinancialAid)
		updated = true
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// SetPassword stores pwd as is on every row carrying uname.
func (t *Table) SetPassword(uname, pwd string) error {
	var updated bool
	for i := range t.Users {
		if t.Users[i].Username == uname {
			t.Users[i].Password = pwd
			updated = true
		}
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (t *Table) indexOf(uname string) int {
	for i, usr := range t.Users {
		if usr.Username == uname {
			return i
		}
	}
	return -1
}
