package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
	logsvc "github.com/trezcool/dropout/services/logger"
	"github.com/trezcool/dropout/storage/csvstore"
	inmemstore "github.com/trezcool/dropout/storage/inmem"
)

const testData = `username,password,role,full_name,student_id,attendance,avg_grade,lms_activity,financial_aid
alice,pass1,student,Alice Smith,1,55,70,3,1
bob,pass2,student,Bob Jones,2,40,50,2,0
carol,pass3,student,Carol King,3,90,85,20,1
tina,teach,teacher,Tina Teacher,,,,,
`

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	store *csvstore.Store
	svc   *user.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte(testData), 0o644))

	conf := &core.Config{
		Env:                "TEST",
		TestMode:           true,
		AppName:            "Dropout Predictor",
		SecretKey:          "test-secret",
		JWTExpirationDelta: time.Hour,
		DataFile:           path,
		PasswordMinLen:     5,
		PasswordPolicy:     core.PasswordPolicyLegacy,
		Server:             core.ServerConfig{DisableReqLogs: true},
	}

	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(io.Discard, false), "TEST", conf)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	store := csvstore.New(path)
	svc := user.NewService(store, inmemstore.NewSessionRepository(), validate, conf)

	return &testApp{
		Server: NewServer(ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    svc,
			Validate:   validate,
			Translator: translator,
		}),
		store: store,
		svc:   svc,
	}
}

// login opens a session for uname and returns its token.
func (app *testApp) login(t *testing.T, uname, pwd string) string {
	t.Helper()
	sess, err := app.svc.Login(context.Background(), uname, pwd)
	require.NoError(t, err)
	token, err := app.tokens.GenerateToken(sess)
	require.NoError(t, err)
	return token
}

func (app *testApp) table(t *testing.T) *user.Table {
	t.Helper()
	tbl, err := app.store.Load(context.Background())
	require.NoError(t, err)
	return tbl
}

func (app *testApp) getUser(t *testing.T, uname string) user.User {
	t.Helper()
	usr, err := app.table(t).Get(uname)
	require.NoError(t, err)
	return usr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
