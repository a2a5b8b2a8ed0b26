package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/erazemk/premiki/internal/auth"
	"github.com/erazemk/premiki/internal/db"
	"github.com/erazemk/premiki/internal/model"
	"github.com/erazemk/premiki/internal/report"
	"github.com/erazemk/premiki/internal/store"
	"github.com/erazemk/premiki/internal/transfer"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password"
)

type testServer struct {
	*httptest.Server
	db    *sql.DB
	token string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)

	cache, err := report.NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	router := NewRouter(Options{
		DB:        database,
		JWTSecret: testJWTSecret,
		Transfers: transfer.New(database, nil),
		Reports:   report.NewEngine(database),
		Cache:     cache,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, db: database}
	ts.createUser(t, "admin@example.com", true, true)
	ts.token = ts.login(t, "admin@example.com", testPassword)
	return ts
}

func (ts *testServer) createUser(t *testing.T, email string, isAdmin, active bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := store.CreateUser(context.Background(), ts.db, email, hash, isAdmin, active)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := ts.do(t, "POST", "/api/auth/login", "", map[string]string{"email": email, "password": password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var lr loginResponse
	json.NewDecoder(resp.Body).Decode(&lr)
	if lr.Token == "" {
		t.Fatal("empty token from login")
	}
	return lr.Token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// call performs an authenticated request, checks the status and decodes the
// response into out when out is not nil.
func (ts *testServer) call(t *testing.T, method, path string, body any, want int, out any) {
	t.Helper()
	resp := ts.do(t, method, path, ts.token, body)
	defer resp.Body.Close()
	if resp.StatusCode != want {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ADMIN@example.com ", "password": testPassword})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected email to be matched case-insensitively, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignupRequiresActivation(t *testing.T) {
	ts := setupTestServer(t)

	var created model.User
	resp := ts.do(t, "POST", "/api/auth/signup", "", map[string]string{"email": "new@example.com", "password": "longenough"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.Active {
		t.Error("expected signed up user to be inactive")
	}

	resp = ts.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "new@example.com", "password": "longenough"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 before activation, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	ts.call(t, "PUT", "/api/users/"+itoa(created.ID)+"/activate", map[string]bool{"active": true}, http.StatusOK, nil)
	ts.login(t, "new@example.com", "longenough")

	resp = ts.do(t, "POST", "/api/auth/signup", "", map[string]string{"email": "short@example.com", "password": "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, "GET", "/api/items", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, "GET", "/api/items", "not-a-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminOnlyRoutes(t *testing.T) {
	ts := setupTestServer(t)
	ts.createUser(t, "worker@example.com", false, true)
	token := ts.login(t, "worker@example.com", testPassword)

	resp := ts.do(t, "GET", "/api/users", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = ts.do(t, "GET", "/api/locations", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 on user route, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	var users []model.User
	ts.call(t, "GET", "/api/users", nil, http.StatusOK, &users)
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestDeactivatedUserLosesAccess(t *testing.T) {
	ts := setupTestServer(t)
	worker := ts.createUser(t, "worker@example.com", false, true)
	token := ts.login(t, "worker@example.com", testPassword)

	ts.call(t, "PUT", "/api/users/"+itoa(worker.ID)+"/activate", map[string]bool{"active": false}, http.StatusOK, nil)

	resp := ts.do(t, "GET", "/api/items", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after deactivation, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := setupTestServer(t)

	ts.call(t, "POST", "/api/auth/logout", nil, http.StatusOK, nil)

	resp := ts.do(t, "GET", "/api/items", ts.token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTransferAndReportFlow(t *testing.T) {
	ts := setupTestServer(t)

	var from, to model.Location
	ts.call(t, "POST", "/api/locations", map[string]string{"name": "Warehouse"}, http.StatusCreated, &from)
	ts.call(t, "POST", "/api/locations", map[string]string{"name": "Shop"}, http.StatusCreated, &to)

	var widget model.Item
	ts.call(t, "POST", "/api/items", map[string]string{"name": "Widget"}, http.StatusCreated, &widget)

	var created model.Transfer
	ts.call(t, "POST", "/api/transfers", map[string]any{
		"from_location_id": from.ID,
		"to_location_id":   to.ID,
		"items": []map[string]int64{
			{"item_id": widget.ID, "quantity": 3},
			{"item_id": widget.ID, "quantity": 0},
			{"item_id": 999, "quantity": 4},
		},
	}, http.StatusCreated, &created)

	if len(created.Items) != 1 || created.Items[0].Quantity != 3 {
		t.Fatalf("expected one line of 3, got %+v", created.Items)
	}
	if created.Completed {
		t.Error("expected new transfer to be open")
	}

	var open []model.Transfer
	ts.call(t, "GET", "/api/transfers", nil, http.StatusOK, &open)
	if len(open) != 1 {
		t.Fatalf("expected 1 open transfer, got %d", len(open))
	}

	// Not completed yet, so the report is empty.
	var res reportResponse
	period := map[string]string{"start": "2000-01-01", "end": "2100-01-01"}
	ts.call(t, "POST", "/api/reports", period, http.StatusOK, &res)
	if len(res.Rows) != 0 {
		t.Fatalf("expected no rows before completion, got %+v", res.Rows)
	}

	ts.call(t, "POST", "/api/transfers/"+itoa(created.ID)+"/complete", nil, http.StatusOK, nil)

	var completed []model.Transfer
	ts.call(t, "GET", "/api/transfers?filter=completed", nil, http.StatusOK, &completed)
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed transfer, got %d", len(completed))
	}

	ts.call(t, "POST", "/api/reports", period, http.StatusOK, &res)
	if len(res.Rows) != 1 || res.TotalQuantity != 3 {
		t.Fatalf("expected one row totalling 3, got %+v", res)
	}
	row := res.Rows[0]
	if row.FromLocation != "Warehouse" || row.ToLocation != "Shop" || row.Item != "Widget" {
		t.Errorf("unexpected row %+v", row)
	}

	var last reportResponse
	ts.call(t, "GET", "/api/reports/last", nil, http.StatusOK, &last)
	if last.ID != res.ID {
		t.Errorf("expected cached report %s, got %s", res.ID, last.ID)
	}

	resp := ts.do(t, "GET", "/api/reports/last.csv", ts.token, nil)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for csv, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Warehouse,Shop,Widget,3") {
		t.Errorf("csv missing row: %q", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	// Used locations and items cannot be deleted.
	ts.call(t, "DELETE", "/api/locations/"+itoa(from.ID), nil, http.StatusBadRequest, nil)
	ts.call(t, "DELETE", "/api/items/"+itoa(widget.ID), nil, http.StatusBadRequest, nil)

	ts.call(t, "DELETE", "/api/transfers/"+itoa(created.ID), nil, http.StatusOK, nil)
	ts.call(t, "GET", "/api/transfers/"+itoa(created.ID), nil, http.StatusNotFound, nil)
}

func TestCreateTransferUnknownLocation(t *testing.T) {
	ts := setupTestServer(t)

	var loc model.Location
	ts.call(t, "POST", "/api/locations", map[string]string{"name": "Warehouse"}, http.StatusCreated, &loc)

	ts.call(t, "POST", "/api/transfers", map[string]any{
		"from_location_id": loc.ID,
		"to_location_id":   loc.ID + 100,
	}, http.StatusBadRequest, nil)

	var all []model.Transfer
	ts.call(t, "GET", "/api/transfers?filter=all", nil, http.StatusOK, &all)
	if len(all) != 0 {
		t.Errorf("expected no transfers, got %d", len(all))
	}

	ts.call(t, "GET", "/api/transfers?filter=bogus", nil, http.StatusBadRequest, nil)
}

func TestReportValidation(t *testing.T) {
	ts := setupTestServer(t)

	ts.call(t, "GET", "/api/reports/last", nil, http.StatusNotFound, nil)
	ts.call(t, "POST", "/api/reports", map[string]string{"start": "yesterday", "end": "2024-01-01"}, http.StatusBadRequest, nil)
	ts.call(t, "POST", "/api/reports", map[string]string{"start": "2024-02-01", "end": "2024-01-01"}, http.StatusBadRequest, nil)
}

func TestItemImport(t *testing.T) {
	ts := setupTestServer(t)

	req, _ := http.NewRequest("POST", ts.URL+"/api/items/import", strings.NewReader("Hammer\nSaw\n\nHammer\n"))
	req.Header.Set("Authorization", "Bearer "+ts.token)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("import request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ir importResponse
	json.NewDecoder(resp.Body).Decode(&ir)
	if ir.Created != 2 {
		t.Errorf("expected 2 created, got %d", ir.Created)
	}

	var items []model.Item
	ts.call(t, "GET", "/api/items?q=ham", nil, http.StatusOK, &items)
	if len(items) != 1 || items[0].Name != "Hammer" {
		t.Errorf("expected search to find Hammer, got %+v", items)
	}
}

func TestDeleteSelfRejected(t *testing.T) {
	ts := setupTestServer(t)

	admin, _ := store.GetUserByEmail(context.Background(), ts.db, "admin@example.com")
	ts.call(t, "DELETE", "/api/users/"+itoa(admin.ID), nil, http.StatusBadRequest, nil)
	ts.call(t, "DELETE", "/api/users/9999", nil, http.StatusNotFound, nil)
	ts.call(t, "GET", "/api/users/abc", nil, http.StatusBadRequest, nil)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
