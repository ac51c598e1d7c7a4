package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"cafeshop/internal/config"
	"cafeshop/internal/server"
	"cafeshop/internal/testutil"
	"cafeshop/internal/usecase"
	auth "cafeshop/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app *server.App
	srv *httptest.Server
	gw  *testutil.FakeGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{
		Port:         "0",
		GoEnv:        "test",
		DBDriver:     "sqlite",
		JWTSecret:    "e2e-secret",
		SessionTTL:   time.Hour,
		CookieSecure: false,
		BcryptCost:   4,
		BaseURL:      "http://shop.test",
		Currency:     "gbp",
	}

	gw := testutil.NewFakeGateway()
	app, err := server.Build(cfg, testutil.NewTestDB(t), gw)
	require.NoError(t, err)

	//起動時点のカタログ
	_, err = app.Cafes.Create(context.Background(), 1, usecase.CafeInput{
		Name:     "Cafe1",
		MapURL:   "https://g.page/scigallerylon",
		ImgURL:   "https://img.example/scigallery.jpg",
		Location: "London Bridge",
		Seats:    "50+",
		HasWifi:  true,
		Price:    300,
	})
	require.NoError(t, err)
	_, err = app.Prices.SyncAll(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)

	return &testApp{app: app, srv: srv, gw: gw}
}

// リダイレクトは追わない
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	res, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	res, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func (a *testApp) register(t *testing.T, c *http.Client, email string) {
	t.Helper()
	res, _ := a.post(t, c, "/register", url.Values{"email": {email}, "password": {"pw"}, "name": {"Tester"}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "/", res.Header.Get("Location"))
}

func (a *testApp) loginAdmin(t *testing.T) *http.Client {
	t.Helper()
	_, _, err := a.app.SeedUser.Execute(context.Background(), auth.SeedAdminInput{Email: "admin@example.com", Password: "pw"})
	require.NoError(t, err)

	c := a.client(t)
	res, _ := a.post(t, c, "/login", url.Values{"email": {"admin@example.com"}, "password": {"pw"}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	return c
}

var (
	lineRe = regexp.MustCompile(`data-line-id="(\d+)" data-qty="(\d+)"`)
	cafeRe = regexp.MustCompile(`data-cafe-id="(\d+)"`)
)

// カートの1行目の (id, 数量)
func firstLine(t *testing.T, body string) (string, string) {
	t.Helper()
	m := lineRe.FindStringSubmatch(body)
	require.NotNil(t, m, "no cart line in body")
	return m[1], m[2]
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)
	res, body := a.get(t, a.client(t), "/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "ok")
}

func TestCartFlow(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	for i := 0; i < 2; i++ {
		res, _ := a.post(t, c, "/cart", url.Values{"cart-button": {"1"}})
		require.Equal(t, http.StatusFound, res.StatusCode)
		require.Equal(t, "/cart", res.Header.Get("Location"))
	}

	res, body := a.get(t, c, "/cart")
	require.Equal(t, http.StatusOK, res.StatusCode)
	lineID, qty := firstLine(t, body)
	assert.Equal(t, "2", qty)
	assert.Contains(t, body, "£6.00")

	res, _ = a.post(t, c, "/add-one", url.Values{"add-button": {lineID}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	_, body = a.get(t, c, "/cart")
	_, qty = firstLine(t, body)
	assert.Equal(t, "3", qty)

	a.post(t, c, "/minus-one", url.Values{"minus-button": {lineID}})
	a.post(t, c, "/minus-one", url.Values{"minus-button": {lineID}})
	_, body = a.get(t, c, "/cart")
	_, qty = firstLine(t, body)
	assert.Equal(t, "1", qty)

	res, _ = a.post(t, c, "/minus-one", url.Values{"minus-button": {lineID}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	_, body = a.get(t, c, "/cart")
	assert.Contains(t, body, "Your cart is empty.")
	assert.Nil(t, lineRe.FindStringSubmatch(body))
}

func TestCartLineOfAnotherUser(t *testing.T) {
	a := newTestApp(t)

	owner := a.client(t)
	a.register(t, owner, "owner@example.com")
	a.post(t, owner, "/cart", url.Values{"cart-button": {"1"}})
	_, body := a.get(t, owner, "/cart")
	lineID, _ := firstLine(t, body)

	other := a.client(t)
	a.register(t, other, "other@example.com")

	res, _ := a.post(t, other, "/delete-from-cart", url.Values{"cart-delete": {lineID}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = a.post(t, other, "/create-checkout-session", url.Values{"checkout-button": {lineID}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	_, body = a.get(t, owner, "/cart")
	_, qty := firstLine(t, body)
	assert.Equal(t, "1", qty)
}

func TestUnauthenticated(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	res, body := a.get(t, c, "/cart")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.JSONEq(t, `{"error":"unauthorized"}`, body)

	res, _ = a.post(t, c, "/cart", url.Values{"cart-button": {"1"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	//一覧は見られるがカートボタンは出ない
	res, body = a.get(t, c, "/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Cafe1")
	assert.NotContains(t, body, `name="cart-button"`)
}

func TestNonAdminCannotDelete(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	res, body := a.get(t, c, "/delete/1")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.JSONEq(t, `{"error":"admin only"}`, body)

	res, _ = a.post(t, c, "/delete/1", url.Values{"action": {"delete"}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = a.post(t, c, "/edit-post/1", url.Values{"name": {"Hijacked"}})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	_, body = a.get(t, c, "/")
	assert.Contains(t, body, `data-cafe-id="1"`)
	assert.Contains(t, body, "Cafe1")
	assert.NotContains(t, body, "Hijacked")
}

func TestAdminEditAndDelete(t *testing.T) {
	a := newTestApp(t)
	admin := a.loginAdmin(t)

	res, body := a.get(t, admin, "/edit-post/1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "3.00")

	res, _ = a.post(t, admin, "/edit-post/1", url.Values{
		"name": {"Science Gallery"}, "location": {"London Bridge"},
		"map_url": {"https://g.page/scigallerylon"}, "img_url": {"https://img.example/scigallery.jpg"},
		"seats": {"50+"}, "has_toilet": {"Yes"}, "has_wifi": {"Yes"}, "has_sockets": {"No"},
		"can_take_calls": {"No"}, "coffee_price": {"£2.60"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)

	_, body = a.get(t, admin, "/")
	assert.Contains(t, body, "Science Gallery")
	assert.Contains(t, body, "£2.60")
	//価格の対応は捨てられる
	_, ok := a.app.Prices.Lookup(1)
	assert.False(t, ok)

	res, _ = a.post(t, admin, "/delete/1", url.Values{"action": {"cancel"}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	_, body = a.get(t, admin, "/")
	assert.Contains(t, body, `data-cafe-id="1"`)

	res, _ = a.post(t, admin, "/delete/1", url.Values{"action": {"delete"}})
	require.Equal(t, http.StatusFound, res.StatusCode)
	_, body = a.get(t, admin, "/")
	assert.NotContains(t, body, `data-cafe-id="1"`)

	res, _ = a.get(t, admin, "/edit-post/1")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAddCafeValidation(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	res, body := a.post(t, c, "/add_cafe", url.Values{"name": {"Half Filled"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Location is required.")

	_, body = a.get(t, c, "/")
	assert.NotContains(t, body, "Half Filled")
}

func TestCheckoutCafeAddedAfterStartup(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	res, _ := a.post(t, c, "/add_cafe", url.Values{
		"name": {"Lundenwic"}, "location": {"Aldwych"},
		"map_url": {"https://g.page/lundenwic"}, "img_url": {"https://img.example/lundenwic.jpg"},
		"seats": {"10-20"}, "has_toilet": {"No"}, "has_wifi": {"Yes"}, "has_sockets": {"Yes"},
		"can_take_calls": {"No"}, "coffee_price": {"£2.80"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)

	_, body := a.get(t, c, "/")
	ids := cafeRe.FindAllStringSubmatch(body, -1)
	require.Len(t, ids, 2)
	newID := ids[1][1]

	a.post(t, c, "/cart", url.Values{"cart-button": {newID}})
	_, body = a.get(t, c, "/cart")
	lineID, _ := firstLine(t, body)

	res, _ = a.post(t, c, "/create-checkout-session", url.Values{"checkout-button": {lineID}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	loc := res.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "https://checkout.example/"), loc)

	sessionID := strings.TrimPrefix(loc, "https://checkout.example/")
	in, ok := a.gw.Session(sessionID)
	require.True(t, ok)
	p, ok := a.gw.Price(in.PriceID)
	require.True(t, ok)
	assert.Equal(t, int64(280), p.UnitAmount)

	//支払い前はcancelできる
	res, body = a.get(t, c, "/cancel?key="+url.QueryEscape(in.IdempotencyKey))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Your cart has been kept.")

	//もう一度チェックアウトして支払う
	res, _ = a.post(t, c, "/create-checkout-session", url.Values{"checkout-button": {lineID}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	sessionID = strings.TrimPrefix(res.Header.Get("Location"), "https://checkout.example/")
	a.gw.MarkPaid(sessionID)

	res, body = a.get(t, c, "/success?session_id="+sessionID)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "is paid.")

	_, body = a.get(t, c, "/cart")
	assert.Contains(t, body, "Your cart is empty.")

	res, body = a.get(t, c, "/orders")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Lundenwic")
	assert.Contains(t, body, "PAID")
	assert.Contains(t, body, "CANCELED")
}

func TestCheckoutGatewayErrorIsRawText(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	a.post(t, c, "/cart", url.Values{"cart-button": {"1"}})
	_, body := a.get(t, c, "/cart")
	lineID, _ := firstLine(t, body)

	a.gw.SetCheckoutErr(&usecase.GatewayError{Message: "Invalid API Key provided: sk_test_***"})

	res, body := a.post(t, c, "/create-checkout-session", url.Values{"checkout-button": {lineID}})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, "Invalid API Key provided: sk_test_***", body)
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/plain"))

	//カートはそのまま
	_, body = a.get(t, c, "/cart")
	_, qty := firstLine(t, body)
	assert.Equal(t, "1", qty)
}

func TestAuthMessages(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	res, body := a.post(t, a.client(t), "/register", url.Values{"email": {"ann@example.com"}, "password": {"pw"}, "name": {"Ann"}})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body, "You already have signed up with that email, log in instead.")

	res, body = a.post(t, a.client(t), "/login", url.Values{"email": {"nobody@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "No user with that email exists.")

	res, body = a.post(t, a.client(t), "/login", url.Values{"email": {"ann@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Invalid Password")
}

func TestLogoutRevokesSession(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)
	a.register(t, c, "ann@example.com")

	u, err := url.Parse(a.srv.URL)
	require.NoError(t, err)
	var token string
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "session" {
			token = ck.Value
		}
	}
	require.NotEmpty(t, token)

	res, _ := a.get(t, c, "/logout")
	require.Equal(t, http.StatusFound, res.StatusCode)

	res, _ = a.get(t, c, "/cart")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	//古いトークンも使えない
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/cart", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	readBody(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminImport(t *testing.T) {
	a := newTestApp(t)

	src := `- name: Bar Polski
  map_url: https://g.page/barpolski
  img_url: https://img.example/barpolski.jpg
  location: Holborn
  seats: 20-30
  has_toilet: "Yes"
  has_wifi: "No"
  has_sockets: "Yes"
  can_take_calls: "No"
  coffee_price: "£2.50"
- name: Cafe1
  map_url: https://g.page/scigallerylon
  img_url: https://img.example/scigallery.jpg
  location: London Bridge
  seats: 50+
  has_toilet: "Yes"
  has_wifi: "Yes"
  has_sockets: "Yes"
  can_take_calls: "No"
  coffee_price: "£2.40"
- name: Broken Links
  map_url: not a url
  img_url: also bad
  location: Dalston
  seats: "10"
  has_toilet: "Yes"
  has_wifi: "Yes"
  has_sockets: "No"
  can_take_calls: "No"
  coffee_price: "£2.80"
`
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "cafes.yaml")
	require.NoError(t, err)
	_, err = fw.Write([]byte(src))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	upload := func(c *http.Client) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/admin/import", bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", w.FormDataContentType())
		res, err := c.Do(req)
		require.NoError(t, err)
		return res, readBody(t, res)
	}

	user := a.client(t)
	a.register(t, user, "ann@example.com")
	res, _ := upload(user)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := upload(a.loginAdmin(t))
	require.Equal(t, http.StatusOK, res.StatusCode)

	var out usecase.ImportResult
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, 1, out.Created)
	assert.Equal(t, 2, out.Skipped)
	require.Len(t, out.Errors, 2)
	assert.Contains(t, out.Errors[0], "map_url must be a valid URL.")

	_, body = a.get(t, user, "/")
	assert.Contains(t, body, "Bar Polski")
	assert.NotContains(t, body, "Broken Links")
}
