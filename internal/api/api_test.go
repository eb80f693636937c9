package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/analysis"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/combo"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/ingest"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/service"
)

type fakeUsers struct{ users map[string]entity.User }

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("user %s not found", username)
	}
	return &u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, user *entity.User) (*entity.User, error) {
	f.users[user.Username] = *user
	return user, nil
}

type fakeSessions struct{ values map[string]string }

func (f *fakeSessions) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeSessions) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeSessions) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type fakeSales struct{ events []entity.SaleEvent }

func (f *fakeSales) Publish(_ context.Context, ev entity.SaleEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type handlerFixture struct {
	handler  *Handler
	sales    *fakeSales
	sessions *fakeSessions
	users    *fakeUsers
}

func newFixture() handlerFixture {
	datasets := service.NewDatasetService(nil, nil, analysis.Options{}, combo.Options{})
	deductions := service.NewDeductionService(nil, entity.DeductionProfile{FixedCostRatio: 0.10, TaxRate: 0.05})
	users := &fakeUsers{users: map[string]entity.User{}}
	sessions := &fakeSessions{values: map[string]string{}}
	auth := service.NewAuthService(users, sessions, "test-secret", "")
	sales := &fakeSales{}
	return handlerFixture{
		handler:  NewHandler(datasets, deductions, auth, sales, ingest.Options{}),
		sales:    sales,
		sessions: sessions,
		users:    users,
	}
}

func postJSON(t *testing.T, handler echo.HandlerFunc, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return postJSONAs(t, handler, path, body, nil)
}

// postJSONAs runs the handler with a parsed token on the context, the way
// the JWT middleware leaves it.
func postJSONAs(t *testing.T, handler echo.HandlerFunc, path, body string, claims jwt.MapClaims) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set("user", &jwt.Token{Claims: claims, Raw: "test-token"})
	}
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response %q: %v", rec.Body.String(), err)
	}
	return rec, payload
}

func TestPriceCounterEndpoint(t *testing.T) {
	f := newFixture()
	rec, payload := postJSON(t, f.handler.PriceCounter, "/pricing/counter",
		`{"direct_costs": 10, "desired_margin": 0.20}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// 10 / (1 - 0.15 - 0.20)
	price := payload["price"].(float64)
	if price < 15.38 || price > 15.39 {
		t.Errorf("price = %v, want ~15.3846", price)
	}
}

func TestPriceCounterRejectsCeiling(t *testing.T) {
	f := newFixture()
	rec, payload := postJSON(t, f.handler.PriceCounter, "/pricing/counter",
		`{"direct_costs": 10, "desired_margin": 0.90}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if payload["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestPriceDeliveryRejectsCommission(t *testing.T) {
	f := newFixture()
	rec, _ := postJSON(t, f.handler.PriceDelivery, "/pricing/delivery",
		`{"list_price": 20, "commission_rate": 1.2}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestPnLEndpoint(t *testing.T) {
	f := newFixture()
	rec, payload := postJSON(t, f.handler.GetPnL, "/analysis/pnl",
		`{"fixed_costs": 100, "tax_rate": 0.06, "card_fee_rate": 0.03}`)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["net_profit"].(float64) != -100 {
		t.Errorf("net profit = %v, want -100 on an empty dataset", payload["net_profit"])
	}
}

func TestRecordSaleEndpoint(t *testing.T) {
	f := newFixture()
	rec, _ := postJSON(t, f.handler.RecordSale, "/sales",
		`{"product": "pão francês", "quantity": 10, "sale_price": 0.9, "revenue": 9}`)
	if rec.Code != 202 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(f.sales.events) != 1 || f.sales.events[0].Product != "pão francês" {
		t.Fatalf("published events = %+v", f.sales.events)
	}

	rec, _ = postJSON(t, f.handler.RecordSale, "/sales",
		`{"product": "estorno", "quantity": -5}`)
	if rec.Code != 400 {
		t.Errorf("negative sale: status = %d, want 400", rec.Code)
	}
	if len(f.sales.events) != 1 {
		t.Errorf("negative sale must not be published, got %+v", f.sales.events)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture()
	f.sessions.values["session:dona"] = "test-token"

	rec, _ := postJSONAs(t, f.handler.Logout, "/logout", `{}`,
		jwt.MapClaims{"username": "dona", "role": entity.RoleMaster})
	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, ok := f.sessions.values["session:dona"]; ok {
		t.Error("session must be dropped after logout")
	}

	// Without a parsed token there is nothing to log out.
	rec, _ = postJSON(t, f.handler.Logout, "/logout", `{}`)
	if rec.Code != 401 {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSessionGuard(t *testing.T) {
	f := newFixture()
	next := func(c echo.Context) error { return c.JSON(200, map[string]string{"status": "ok"}) }
	guarded := f.handler.SessionGuard(next)

	claims := jwt.MapClaims{"username": "dona", "role": entity.RoleMaster}

	// A token whose session was never cached (or was logged out) is dead.
	rec, _ := postJSONAs(t, guarded, "/datasets", `{}`, claims)
	if rec.Code != 401 {
		t.Fatalf("revoked token: status = %d, want 401", rec.Code)
	}

	f.sessions.values["session:dona"] = "test-token"
	rec, _ = postJSONAs(t, guarded, "/datasets", `{}`, claims)
	if rec.Code != 200 {
		t.Fatalf("cached token: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCreateUserRequiresMaster(t *testing.T) {
	f := newFixture()
	body := `{"username": "novo", "password": "pw", "role": "vendedor"}`

	rec, _ := postJSONAs(t, f.handler.CreateUser, "/users", body,
		jwt.MapClaims{"username": "joao", "role": entity.RoleVendedor})
	if rec.Code != 403 {
		t.Fatalf("non-master: status = %d, want 403", rec.Code)
	}

	rec, _ = postJSONAs(t, f.handler.CreateUser, "/users", body,
		jwt.MapClaims{"username": "dona", "role": entity.RoleMaster})
	if rec.Code != 201 {
		t.Fatalf("master: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, ok := f.users.users["novo"]; !ok {
		t.Error("user was not stored")
	}
}
