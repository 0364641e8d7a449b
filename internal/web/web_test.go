package web

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/wildcat/internal/db"
	"github.com/erazemk/wildcat/internal/model"
	"github.com/erazemk/wildcat/internal/objstore"
	"github.com/erazemk/wildcat/internal/otp"
	"github.com/erazemk/wildcat/internal/store"
)

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[to] = code
	return nil
}

func (b *codeBox) last(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[to]
}

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	mail   *codeBox
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	box := &codeBox{codes: map[string]string{}}
	objects, err := objstore.NewLocal(t.TempDir(), "http://media.test")
	if err != nil {
		t.Fatal(err)
	}

	router, err := NewRouter(&Server{
		DB:        database,
		JWTSecret: "web-test-secret",
		OTP: otp.NewService(otp.SQLStore{DB: database}, box, otp.Options{
			Domain:   "davidson.edu",
			HashCost: bcrypt.MinCost,
		}),
		Objects:        objects,
		ModeratorEmail: "market@davidson.edu",
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, db: database, mail: box}
}

// browser keeps cookies and does not follow redirects.
type browser struct {
	t      *testing.T
	env    *testEnv
	client *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	jar, _ := cookiejar.New(nil)
	return &browser{t: t, env: e, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.env.server.URL + path)
	if err != nil {
		b.t.Fatal(err)
	}
	return resp, readBody(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.env.server.URL+path, form)
	if err != nil {
		b.t.Fatal(err)
	}
	return resp, readBody(b.t, resp)
}

func (b *browser) cookie(name string) string {
	u, _ := url.Parse(b.env.server.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// login runs the code flow and returns the redirect target of the verify step.
func (b *browser) login(email string) string {
	b.t.Helper()
	resp, _ := b.post("/login", url.Values{"email": {email}})
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("requesting code: %d", resp.StatusCode)
	}
	resp, _ = b.post("/login/verify", url.Values{
		"email": {email},
		"code":  {b.env.mail.last(model.NormalizeEmail(email))},
	})
	if resp.StatusCode != http.StatusSeeOther {
		b.t.Fatalf("verifying code: %d", resp.StatusCode)
	}
	return resp.Header.Get("Location")
}

// onboard logs in a new user, sets their name and returns where they were sent next.
func (b *browser) onboard(email, name string) string {
	b.t.Helper()
	if loc := b.login(email); loc != "/welcome" {
		b.t.Fatalf("expected /welcome after first login, got %q", loc)
	}
	resp, _ := b.post("/welcome", url.Values{"full_name": {name}})
	if resp.StatusCode != http.StatusSeeOther {
		b.t.Fatalf("onboarding: %d", resp.StatusCode)
	}
	return resp.Header.Get("Location")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func seedItem(t *testing.T, database *sql.DB, email, name, title, category string) *model.Item {
	t.Helper()
	ctx := context.Background()
	p, _, err := store.EnsureProfile(ctx, database, email)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateProfile(ctx, database, p.ID, model.ProfilePatch{FullName: &name}); err != nil {
		t.Fatal(err)
	}
	item, err := store.CreateItem(ctx, database, p.ID, model.NewListing{
		Title:       title,
		Price:       decimal.NewFromInt(10),
		Description: "Works fine",
		Category:    category,
		Condition:   "Good",
	})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func TestFeedIsPublicAndFiltered(t *testing.T) {
	env := setupTestServer(t)
	seedItem(t, env.db, "a@davidson.edu", "Ana Lopez", "Couch", "Furniture")
	seedItem(t, env.db, "a@davidson.edu", "Ana Lopez", "Calculus Book", "Books & Notes")
	b := env.browser(t)

	resp, body := b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Couch") || !strings.Contains(body, "Calculus Book") {
		t.Error("expected both listings in the feed")
	}
	if strings.Index(body, "Calculus Book") > strings.Index(body, "Couch") {
		t.Error("expected newest listing first")
	}
	if !strings.Contains(body, "Ana") {
		t.Error("expected seller first name on cards")
	}

	_, body = b.get("/?category=" + url.QueryEscape("Books & Notes"))
	if strings.Contains(body, "Couch") || !strings.Contains(body, "Calculus Book") {
		t.Error("expected only Books & Notes listings")
	}
}

func TestGuestDetailBoomerang(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Desk Lamp", "Dorm Essentials")
	other := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Rug", "Furniture")
	b := env.browser(t)

	resp, _ := b.get("/items/" + other.ID)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	// A second guest action replaces the first.
	b.get("/items/" + item.ID)
	if got := b.cookie(pendingCookie); got != item.ID {
		t.Fatalf("expected pending %q, got %q", item.ID, got)
	}

	_, body := b.get("/login")
	if !strings.Contains(body, "Log in to see this listing") {
		t.Error("expected pending hint on login page")
	}

	if loc := b.onboard("buyer@davidson.edu", "Bea Buyer"); loc != "/items/"+item.ID {
		t.Errorf("expected resume to the deferred item, got %q", loc)
	}
	if b.cookie(pendingCookie) != "" {
		t.Error("pending item should be cleared after resume")
	}

	resp, body = b.get("/items/" + item.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected detail page, got %d", resp.StatusCode)
	}
	for _, want := range []string{"Desk Lamp", "Sam Seller", "subject=Regarding%3A%20Desk%20Lamp", "mailto:market@davidson.edu", "Bea"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q on detail page", want)
		}
	}

	// Logging in again does not reopen it.
	b.post("/logout", nil)
	if loc := b.login("buyer@davidson.edu"); loc != "/" {
		t.Errorf("expected / after login without pending item, got %q", loc)
	}
}

func TestWelcomeResumesPendingItem(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Bike", "Other")
	b := env.browser(t)

	b.get("/items/" + item.ID)
	if loc := b.login("new@davidson.edu"); loc != "/welcome" {
		t.Fatalf("expected /welcome, got %q", loc)
	}

	// The onboarding step blocks other pages.
	resp, _ := b.get("/")
	if resp.Header.Get("Location") != "/welcome" {
		t.Errorf("expected feed to redirect to /welcome, got %q", resp.Header.Get("Location"))
	}

	resp, body := b.post("/welcome", url.Values{"full_name": {" x "}})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Please enter your real full name.") {
		t.Errorf("expected short name rejection, got %d", resp.StatusCode)
	}

	resp, _ = b.post("/welcome", url.Values{"full_name": {"Nia Newcomer"}})
	if loc := resp.Header.Get("Location"); loc != "/items/"+item.ID {
		t.Errorf("expected resume to item, got %q", loc)
	}
}

func TestLoginCancelClearsPending(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Bike", "Other")
	seedItem(t, env.db, "buyer@davidson.edu", "Bea Buyer", "Lamp", "Other")
	b := env.browser(t)

	b.get("/items/" + item.ID)
	b.post("/login/cancel", nil)
	if b.cookie(pendingCookie) != "" {
		t.Fatal("expected pending cookie cleared")
	}
	if loc := b.login("buyer@davidson.edu"); loc != "/" {
		t.Errorf("expected / after cancelled boomerang, got %q", loc)
	}
}

func TestLoginWrongDomain(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)

	resp, body := b.post("/login", url.Values{"email": {"me@gmail.com"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Please use your @davidson.edu email address.") {
		t.Error("expected domain message")
	}
}

func TestVerifyWrongCode(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)

	b.post("/login", url.Values{"email": {"a@davidson.edu"}})
	resp, body := b.post("/login/verify", url.Values{"email": {"a@davidson.edu"}, "code": {"000000x"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "not right") {
		t.Error("expected wrong code message")
	}
	if b.cookie(tokenCookie) != "" {
		t.Error("expected no session cookie")
	}
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func (b *browser) sell(fields map[string]string, photos int) (*http.Response, string) {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for i := 0; i < photos; i++ {
		fw, err := mw.CreateFormFile("images", "photo.jpg")
		if err != nil {
			b.t.Fatal(err)
		}
		fw.Write(jpegBytes(b.t))
	}
	mw.Close()

	resp, err := b.client.Post(b.env.server.URL+"/sell", mw.FormDataContentType(), &body)
	if err != nil {
		b.t.Fatal(err)
	}
	return resp, readBody(b.t, resp)
}

func TestSellListing(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)
	b.onboard("seller@davidson.edu", "Sam Seller")
	seller, _ := store.GetProfileByEmail(context.Background(), env.db, "seller@davidson.edu")

	fields := map[string]string{
		"title":       "Mini Fridge",
		"price":       "-5",
		"description": "Cold",
		"category":    "Appliances",
		"condition":   "Good",
		"phone":       "704-555-0100",
	}
	resp, body := b.sell(fields, 4)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "at most 3 photos") {
		t.Fatalf("expected too many photos error, got %d", resp.StatusCode)
	}

	resp, _ = b.sell(fields, 2)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after sell, got %d", resp.StatusCode)
	}

	items, err := store.ListItems(context.Background(), env.db, model.ItemQuery{SellerID: seller.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if !item.Price.IsZero() {
		t.Errorf("expected negative price clamped to 0, got %s", item.Price)
	}
	if len(item.Images) != 2 || !strings.HasPrefix(item.Images[0], "http://media.test/media/item-images/"+seller.ID+"/") {
		t.Errorf("unexpected images %v", item.Images)
	}
	if item.DisplayPhone != nil {
		t.Error("expected hidden phone when toggle is off")
	}

	// The phone is saved to the profile even when hidden.
	seller, _ = store.GetProfile(context.Background(), env.db, seller.ID)
	if seller.PhoneNumber == nil || *seller.PhoneNumber != "704-555-0100" {
		t.Errorf("expected phone saved to profile, got %v", seller.PhoneNumber)
	}

	fields["show_phone"] = "on"
	fields["title"] = "Microwave"
	resp, _ = b.sell(fields, 0)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	items, _ = store.ListItems(context.Background(), env.db, model.ItemQuery{SellerID: seller.ID})
	if items[0].DisplayPhone == nil || *items[0].DisplayPhone != "704-555-0100" {
		t.Errorf("expected display phone when toggle is on, got %v", items[0].DisplayPhone)
	}

	resp, body = b.get("/items/" + items[0].ID)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Edit listing") {
		t.Error("expected owner view on own listing")
	}
}

func TestSellRequiresLogin(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)

	resp, _ := b.get("/sell")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestMyListings(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)
	b.onboard("seller@davidson.edu", "Sam Seller")
	lamp := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Lamp", "Other")
	desk := seedItem(t, env.db, "seller@davidson.edu", "Sam Seller", "Desk", "Furniture")
	theirs := seedItem(t, env.db, "other@davidson.edu", "Olga Other", "Chair", "Furniture")

	_, body := b.get("/me/listings?edit=" + lamp.ID)
	if !strings.Contains(body, `action="/me/listings/`+lamp.ID+`"`) {
		t.Error("expected edit form")
	}
	if strings.Contains(body, "Chair") {
		t.Error("expected only own listings")
	}

	resp, body := b.post("/me/listings/"+lamp.ID, url.Values{"title": {"  "}, "price": {"3"}})
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "Please enter a title") {
		t.Errorf("expected validation error, got %d", resp.StatusCode)
	}

	resp, _ = b.post("/me/listings/"+lamp.ID, url.Values{"title": {"Brass Lamp"}, "price": {"12.50"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect after edit, got %d", resp.StatusCode)
	}
	got, _ := store.GetItem(context.Background(), env.db, lamp.ID)
	if got.Title != "Brass Lamp" || !got.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("unexpected item after edit: %q %s", got.Title, got.Price)
	}

	b.post("/me/listings/"+desk.ID+"/sold", nil)
	_, body = b.get("/me/listings")
	if !strings.Contains(body, "Sold") {
		t.Error("expected Sold badge")
	}

	b.post("/me/listings/"+lamp.ID+"/delete", nil)
	_, body = b.get("/me/listings")
	if strings.Contains(body, "Brass Lamp") {
		t.Error("expected deleted listing hidden")
	}
	got, _ = store.GetItem(context.Background(), env.db, lamp.ID)
	if got == nil || got.Status != model.ItemStatusArchived {
		t.Error("expected deleted listing archived, not removed")
	}

	resp, _ = b.post("/me/listings/"+theirs.ID+"/delete", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for another seller's listing, got %d", resp.StatusCode)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupTestServer(t)
	b := env.browser(t)
	b.onboard("a@davidson.edu", "Ana Lopez")
	token := b.cookie(tokenCookie)
	if token == "" {
		t.Fatal("expected session cookie")
	}

	b.post("/logout", nil)

	// Replaying the old cookie must not restore the session.
	req, _ := http.NewRequest("GET", env.server.URL+"/sell", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	resp, err := b.client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("Location") != "/login" {
		t.Errorf("expected revoked session to be sent to /login, got %d", resp.StatusCode)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Free"},
		{"5", "$5"},
		{"12.5", "$12.50"},
	}
	for _, tt := range tests {
		if got := formatPrice(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("formatPrice(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDialable(t *testing.T) {
	if got := dialable("+1 (704) 555-0100"); got != "+17045550100" {
		t.Errorf("unexpected %q", got)
	}
}
