package user

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/risk"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotStudent         = errors.New("user is not a student")

	errCurrentPassword = "current password is incorrect"
)

type (
	// Repository loads and saves the whole Table.
	Repository interface {
		Load(ctx context.Context) (*Table, error)
		// Save overwrites the backing storage with tbl.
		Save(ctx context.Context, tbl *Table) error
	}

	SessionRepository interface {
		CreateSession(sess Session) error
		GetSession(id string) (Session, error)
		DeleteSession(id string) error
	}

	Service struct {
		repo     Repository
		sessions SessionRepository
		validate *validator.Validate
		policy   PasswordPolicy
		hashPwds bool
		nowFunc  func() time.Time
	}
)

func NewService(repo Repository, sessions SessionRepository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		validate: validate,
		policy:   NewPasswordPolicy(conf),
		hashPwds: conf.PasswordHashing,
		nowFunc:  time.Now,
	}
}

// Login authenticates the user and opens a new Session.
// Unknown usernames and wrong passwords both fail with ErrInvalidCredentials.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (Session, error) {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return Session{}, errors.Wrap(err, "loading users")
	}
	usr, ok := tbl.Authenticate(uname, pwd)
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	sess := Session{
		ID:        uuid.New().String(),
		Username:  usr.Username,
		Role:      usr.Role,
		FullName:  usr.FullName,
		StudentID: usr.StudentID,
		CreatedAt: svc.nowFunc().UTC(),
	}
	if err = svc.sessions.CreateSession(sess); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

func (svc *Service) Logout(_ context.Context, sessID string) error {
	return svc.sessions.DeleteSession(sessID)
}

func (svc *Service) GetSession(_ context.Context, sessID string) (Session, error) {
	return svc.sessions.GetSession(sessID)
}

// CurrentUser re-reads the session's user from storage.
func (svc *Service) CurrentUser(ctx context.Context, sess Session) (User, error) {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return User{}, errors.Wrap(err, "loading users")
	}
	return tbl.Get(sess.Username)
}

// Report returns the risk report of the session's student.
func (svc *Service) Report(ctx context.Context, sess Session) (StudentReport, error) {
	usr, err := svc.CurrentUser(ctx, sess)
	if err != nil {
		return StudentReport{}, err
	}
	if !usr.IsStudent() {
		return StudentReport{}, ErrNotStudent
	}
	return StudentReport{
		Username:   usr.Username,
		FullName:   usr.FullName,
		Signals:    usr.Signals(),
		Assessment: usr.Assess(),
	}, nil
}

// Students lists the students matching query with their risk, highest score first.
func (svc *Service) Students(ctx context.Context, query string) ([]StudentRisk, error) {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading users")
	}
	found := tbl.Find(RoleStudent, query)
	res := make([]StudentRisk, 0, len(found))
	for _, usr := range found {
		res = append(res, NewStudentRisk(usr))
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Score > res[j].Score })
	return res, nil
}

// Stats summarizes the risk of every student.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "loading users")
	}
	students := tbl.Find(RoleStudent, "")
	assessments := make([]risk.Assessment, 0, len(students))
	points := make([]ScatterPoint, 0, len(students))
	for _, usr := range students {
		a := usr.Assess()
		assessments = append(assessments, a)
		if !usr.Attendance.Valid || !usr.AvgGrade.Valid {
			continue // nothing to plot
		}
		points = append(points, ScatterPoint{Attendance: usr.Attendance.Float64, AvgGrade: usr.AvgGrade.Float64, Risk: a.Category})
	}
	return Stats{
		Total:        len(students),
		Distribution: risk.Distribution(assessments),
		Points:       points,
	}, nil
}

// UpdateStudent validates and persists new signals for a student.
func (svc *Service) UpdateStudent(ctx context.Context, studentID int, us UpdateStudent) (StudentRisk, error) {
	fields, err := us.Validate(svc.validate)
	if err != nil {
		return StudentRisk{}, err
	}

	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return StudentRisk{}, errors.Wrap(err, "loading users")
	}
	if _, err = tbl.GetStudent(studentID); err != nil {
		return StudentRisk{}, err
	}
	if err = tbl.UpdateFields(studentID, fields); err != nil {
		return StudentRisk{}, err
	}
	if err = svc.repo.Save(ctx, tbl); err != nil {
		return StudentRisk{}, errors.Wrap(err, "saving users")
	}

	usr, err := tbl.GetStudent(studentID)
	if err != nil {
		return StudentRisk{}, err
	}
	return NewStudentRisk(usr), nil
}

// ChangePassword changes the session user's password.
// Nothing is saved unless the current password matches and the new one passes validation.
func (svc *Service) ChangePassword(ctx context.Context, sess Session, cp ChangePassword) error {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "loading users")
	}
	usr, err := tbl.Get(sess.Username)
	if err != nil {
		return err
	}

	if !usr.CheckPassword(cp.CurrentPassword) {
		return core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: errCurrentPassword})
	}
	if err = cp.Validate(svc.validate, svc.policy, usr); err != nil {
		return err
	}
	return svc.setPassword(ctx, tbl, usr.Username, cp.NewPassword)
}

// ResetPassword sets a user's password without checking the current one.
func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	tbl, err := svc.repo.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "loading users")
	}
	usr, err := tbl.Get(core.CleanString(uname))
	if err != nil {
		return err
	}

	cp := ChangePassword{NewPassword: pwd, PasswordConfirm: pwd, CurrentPassword: "-"}
	if err = cp.Validate(svc.validate, svc.policy, usr); err != nil {
		return err
	}
	return svc.setPassword(ctx, tbl, usr.Username, pwd)
}

func (svc *Service) setPassword(ctx context.Context, tbl *Table, uname, pwd string) error {
	stored := pwd
	if svc.hashPwds {
		hash, err := HashPassword(pwd)
		if err != nil {
			return errors.Wrap(err, "hashing password")
		}
		stored = hash
	}
	if err := tbl.SetPassword(uname, stored); err != nil {
		return err
	}
	if err := svc.repo.Save(ctx, tbl); err != nil {
		return errors.Wrap(err, "saving users")
	}
	return nil
}
