package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
)

const (
	opLoad = "load"
	opSave = "save"

	utf8BOM = "\ufeff"
)

var (
	errEmptyFile = errors.New("empty file")

	_ user.Repository = (*Store)(nil)
)

// Store persists the user table as one CSV file, read and overwritten in full.
type Store struct {
	path string
	perm os.FileMode
}

func New(path string) *Store {
	return &Store{path: path, perm: 0o644}
}

func (s *Store) Path() string { return s.path }

// Load reads the whole file.
// A missing file, a malformed row or a header lacking any required column is a core.StorageError.
func (s *Store) Load(ctx context.Context) (*user.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, core.NewStorageError(opLoad, s.path, err)
	}
	defer func() { _ = f.Close() }()

	tbl, err := decode(f)
	if err != nil {
		return nil, core.NewStorageError(opLoad, s.path, err)
	}
	return tbl, nil
}

// Save overwrites the file with the header and every row of tbl, unknown columns included.
func (s *Store) Save(ctx context.Context, tbl *user.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := encode(&buf, tbl); err != nil {
		return core.NewStorageError(opSave, s.path, err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), s.perm); err != nil {
		return core.NewStorageError(opSave, s.path, err)
	}
	return nil
}

func decode(r io.Reader) (*user.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows read as blank cells

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errEmptyFile
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	cols := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		cols[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range user.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	tbl := &user.Table{Columns: cols, Users: make([]user.User, 0)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading rows")
		}
		if isBlankRecord(rec) {
			continue
		}
		usr, err := decodeUser(rec, cols, index)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		tbl.Users = append(tbl.Users, usr)
	}
	return tbl, nil
}

func decodeUser(rec, cols []string, index map[string]int) (user.User, error) {
	raw := func(col string) string {
		if i := index[col]; i < len(rec) {
			return rec[i]
		}
		return ""
	}
	cell := func(col string) string { return strings.TrimSpace(raw(col)) }

	var usr user.User
	var err error
	usr.Username = cell(user.ColUsername)
	usr.Password = raw(user.ColPassword)
	usr.Role = user.Role(cell(user.ColRole))
	usr.FullName = cell(user.ColFullName)

	if usr.StudentID, err = parseInt(user.ColStudentID, cell(user.ColStudentID)); err != nil {
		return user.User{}, err
	}
	if usr.Attendance, err = parseFloat(user.ColAttendance, cell(user.ColAttendance)); err != nil {
		return user.User{}, err
	}
	if usr.AvgGrade, err = parseFloat(user.ColAvgGrade, cell(user.ColAvgGrade)); err != nil {
		return user.User{}, err
	}
	if usr.LMSActivity, err = parseInt(user.ColLMSActivity, cell(user.ColLMSActivity)); err != nil {
		return user.User{}, err
	}
	if usr.FinancialAid, err = parseInt(user.ColFinancialAid, cell(user.ColFinancialAid)); err != nil {
		return user.User{}, err
	}

	for i, col := range cols {
		if isRequired(col) || index[col] != i {
			continue
		}
		if usr.Extra == nil {
			usr.Extra = make(map[string]string)
		}
		if i < len(rec) {
			usr.Extra[col] = rec[i]
		} else {
			usr.Extra[col] = ""
		}
	}
	return usr, nil
}

func encode(w io.Writer, tbl *user.Table) error {
	cols := append([]string(nil), tbl.Columns...)
	for _, col := range user.RequiredColumns {
		if !contains(cols, col) {
			cols = append(cols, col)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "writing header")
	}
	rec := make([]string, len(cols))
	for _, usr := range tbl.Users {
		for i, col := range cols {
			rec[i] = encodeCell(usr, col)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return cw.Error()
}

func encodeCell(usr user.User, col string) string {
	switch col {
	case user.ColUsername:
		return usr.Username
	case user.ColPassword:
		return usr.Password
	case user.ColRole:
		return string(usr.Role)
	case user.ColFullName:
		return usr.FullName
	case user.ColStudentID:
		return formatInt(usr.StudentID)
	case user.ColAttendance:
		return formatFloat(usr.Attendance)
	case user.ColAvgGrade:
		return formatFloat(usr.AvgGrade)
	case user.ColLMSActivity:
		return formatInt(usr.LMSActivity)
	case user.ColFinancialAid:
		return formatInt(usr.FinancialAid)
	default:
		return usr.Extra[col]
	}
}

// parseInt accepts integral floats ("3.0") as written by spreadsheet tools.
func parseInt(col, s string) (null.Int, error) {
	if s == "" {
		return null.Int{}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return null.IntFrom(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return null.Int{}, fmt.Errorf("%s: invalid integer %q", col, s)
	}
	return null.IntFrom(int(f)), nil
}

func parseFloat(col, s string) (null.Float64, error) {
	if s == "" {
		return null.Float64{}, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float64{}, fmt.Errorf("%s: invalid number %q", col, s)
	}
	return null.Float64From(f), nil
}

func formatInt(n null.Int) string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Int)
}

func formatFloat(f null.Float64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isRequired(col string) bool {
	return contains(user.RequiredColumns, col)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
