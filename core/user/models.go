package user

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/risk"
)

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Columns of the backing file
const (
	ColUsername     = "username"
	ColPassword     = "password"
	ColRole         = "role"
	ColFullName     = "full_name"
	ColStudentID    = "student_id"
	ColAttendance   = "attendance"
	ColAvgGrade     = "avg_grade"
	ColLMSActivity  = "lms_activity"
	ColFinancialAid = "financial_aid"
)

var (
	AllRoles = []Role{RoleStudent, RoleTeacher}

	// RequiredColumns must all be present in the backing file header.
	RequiredColumns = []string{
		ColUsername, ColPassword, ColRole, ColFullName, ColStudentID,
		ColAttendance, ColAvgGrade, ColLMSActivity, ColFinancialAid,
	}

	bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}
)

const bcryptHashLen = 60

type Role string

// User is one row of the backing file.
// Student-only columns are null when blank (teachers).
type User struct {
	Username     string       `json:"username"`
	Password     string       `json:"-"` // plaintext, or a bcrypt hash when hashing is enabled
	Role         Role         `json:"role"`
	FullName     string       `json:"full_name"`
	StudentID    null.Int     `json:"student_id"`
	Attendance   null.Float64 `json:"attendance"`
	AvgGrade     null.Float64 `json:"avg_grade"`
	LMSActivity  null.Int     `json:"lms_activity"`
	FinancialAid null.Int     `json:"financial_aid"`

	// Extra holds the cells of unknown columns, keyed by header name.
	Extra map[string]string `json:"-"`
}

func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// CheckPassword compares pwd with the stored password.
// Stored bcrypt hashes are verified with bcrypt, anything else is compared as plaintext.
func (u *User) CheckPassword(pwd string) bool {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(pwd)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(pwd)) == 1
}

// Signals returns the risk signals of the user; blank cells read as zero.
func (u *User) Signals() risk.Signals {
	return risk.Signals{
		Attendance:   u.Attendance.Float64,
		AvgGrade:     u.AvgGrade.Float64,
		LMSActivity:  u.LMSActivity.Int,
		FinancialAid: u.FinancialAid.Int,
	}
}

// Recorded reports which signal cells are filled in.
func (u *User) Recorded() risk.Recorded {
	return risk.Recorded{
		Attendance:   u.Attendance.Valid,
		AvgGrade:     u.AvgGrade.Valid,
		LMSActivity:  u.LMSActivity.Valid,
		FinancialAid: u.FinancialAid.Valid,
	}
}

// Assess scores the user; blank cells add nothing to the score.
func (u *User) Assess() risk.Assessment {
	return risk.AssessRecorded(u.Signals(), u.Recorded())
}

// isBcryptHash reports whether s has the full shape of a bcrypt hash: "$2a$10$" + 53 chars.
func isBcryptHash(s string) bool {
	if len(s) != bcryptHashLen || s[6] != '$' || !isDigit(s[4]) || !isDigit(s[5]) {
		return false
	}
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// HashPassword returns the bcrypt hash of pwd.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Fields are the editable student signals.
type Fields struct {
	Attendance   float64
	AvgGrade     float64
	LMSActivity  int
	FinancialAid int
}

// UpdateStudent defines what information may be provided to modify a student's signals.
type UpdateStudent struct {
	Attendance   *float64 `json:"attendance" validate:"required,min=0,max=100"`
	AvgGrade     *float64 `json:"avg_grade" validate:"required,min=0,max=100"`
	LMSActivity  *int     `json:"lms_activity" validate:"required,min=0"`
	FinancialAid *int     `json:"financial_aid" validate:"required,oneof=0 1"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) (Fields, error) {
	if err := validate.Struct(us); err != nil {
		return Fields{}, err
	}
	return Fields{
		Attendance:   *us.Attendance,
		AvgGrade:     *us.AvgGrade,
		LMSActivity:  *us.LMSActivity,
		FinancialAid: *us.FinancialAid,
	}, nil
}

// ChangePassword contains information needed to change the current user's password.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=NewPassword"`

	// set before validation
	policy   PasswordPolicy
	username string
	fullName string
}

// PasswordPolicy is applied to new passwords.
type PasswordPolicy struct {
	MinLen int
	Strict bool // no whitespace, not all numeric, not similar to the username or full name
}

func NewPasswordPolicy(conf *core.Config) PasswordPolicy {
	return PasswordPolicy{
		MinLen: conf.PasswordMinLen,
		Strict: conf.PasswordPolicy == core.PasswordPolicyStrict,
	}
}

func (cp *ChangePassword) Validate(validate *validator.Validate, policy PasswordPolicy, usr User) error {
	cp.policy = policy
	cp.username = usr.Username
	cp.fullName = usr.FullName
	return validate.Struct(cp)
}

// Session is created at login and destroyed at logout.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	StudentID null.Int  `json:"student_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (s Session) IsStudent() bool { return s.Role == RoleStudent }
func (s Session) IsTeacher() bool { return s.Role == RoleTeacher }

// StudentRisk is a student row with its assessment, as listed to teachers.
type StudentRisk struct {
	StudentID    null.Int      `json:"student_id"`
	Username     string        `json:"username"`
	FullName     string        `json:"full_name"`
	Attendance   float64       `json:"attendance"`
	AvgGrade     float64       `json:"avg_grade"`
	LMSActivity  int           `json:"lms_activity"`
	FinancialAid bool          `json:"financial_aid"`
	Risk         risk.Category `json:"risk"`
	Score        float64       `json:"score"` // rounded to 2 decimals
}

func NewStudentRisk(usr User) StudentRisk {
	sig := usr.Signals()
	a := usr.Assess()
	return StudentRisk{
		StudentID:    usr.StudentID,
		Username:     usr.Username,
		FullName:     usr.FullName,
		Attendance:   sig.Attendance,
		AvgGrade:     sig.AvgGrade,
		LMSActivity:  sig.LMSActivity,
		FinancialAid: sig.FinancialAid == 1,
		Risk:         a.Category,
		Score:        risk.Round(a.Score),
	}
}

// Label is how a student is listed for selection: "<id> - <full name> (<username>)".
func (sr StudentRisk) Label() string {
	id := ""
	if sr.StudentID.Valid {
		id = strconv.Itoa(sr.StudentID.Int)
	}
	return id + " - " + sr.FullName + " (" + sr.Username + ")"
}

// StudentReport is a student's own risk report.
type StudentReport struct {
	Username   string          `json:"username"`
	FullName   string          `json:"full_name"`
	Signals    risk.Signals    `json:"signals"`
	Assessment risk.Assessment `json:"assessment"`
}

// ScatterPoint places a student on the attendance vs grades chart.
type ScatterPoint struct {
	Attendance float64       `json:"attendance"`
	AvgGrade   float64       `json:"avg_grade"`
	Risk       risk.Category `json:"risk"`
}

type Stats struct {
	Total        int                   `json:"total"`
	Distribution map[risk.Category]int `json:"distribution"`
	Points       []ScatterPoint        `json:"points"`
}
