package container

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/config"
)

const reviewToken = "review-secret"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Env: "test"},
		Database: config.DatabaseConfig{Driver: "memory"},
		JWT:      config.JWTConfig{AccessSecret: "0123456789abcdef0123456789abcdef", AccessExpiryMin: 60},
		OTP:      config.OTPConfig{TTL: 5 * time.Minute, MaxAttempts: 5},
		Storage: config.StorageConfig{
			Type:             "local",
			Path:             t.TempDir(),
			MaxPhotoBytes:    1 << 20,
			MaxDocumentBytes: 1 << 20,
		},
		Payment: config.PaymentConfig{Currency: "usd", PlatformFeeRate: 0.05, MinPlatformFee: 1},
		KYC:     config.KYCConfig{ReviewToken: reviewToken},
	}
}

type app struct {
	t      *testing.T
	router http.Handler
	logs   *bytes.Buffer
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logs := &bytes.Buffer{}
	c, err := NewContainer(context.Background(), testConfig(t), zerolog.New(logs))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if c.DB != nil || c.Redis != nil {
		t.Fatal("memory config opened external connections")
	}
	return &app{t: t, router: c.Router, logs: logs}
}

func (a *app) do(method, path, token string, body io.Reader, contentType string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// call sends a JSON request and decodes the response into out when set.
func (a *app) call(method, path, token string, in, out any, want int, headers ...string) {
	a.t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	w := a.do(method, path, token, body, "application/json", headers...)
	if w.Code != want {
		a.t.Fatalf("%s %s = %d %s, want %d", method, path, w.Code, w.Body.String(), want)
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
}

// lastCode pulls the most recent verification code from the log output.
func (a *app) lastCode() string {
	a.t.Helper()
	var code string
	sc := bufio.NewScanner(bytes.NewReader(a.logs.Bytes()))
	for sc.Scan() {
		var line struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(sc.Bytes(), &line) == nil && line.Message == "verification code issued" {
			code = line.Code
		}
	}
	if code == "" {
		a.t.Fatal("no verification code logged")
	}
	return code
}

func (a *app) signIn(phone, role string) (token, userID string) {
	a.t.Helper()
	var sent struct {
		VerificationID string `json:"verification_id"`
	}
	a.call(http.MethodPost, "/api/v1/auth/send-code", "", map[string]string{"phone_number": phone}, &sent, http.StatusOK)

	var auth struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
		IsNewUser bool `json:"is_new_user"`
	}
	a.call(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"verification_id": sent.VerificationID,
		"code":            a.lastCode(),
		"role":            role,
	}, &auth, http.StatusOK)
	if !auth.IsNewUser || auth.Token == "" {
		a.t.Fatalf("verify = %+v, want new user with token", auth)
	}
	return auth.Token, auth.User.ID
}

func (a *app) upload(path, token, field string, data []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "file.png")
	if err != nil {
		a.t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()
	return a.do(http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

func TestRideToPaymentFlow(t *testing.T) {
	a := newApp(t)
	riderToken, riderID := a.signIn("+15550000001", "rider")
	seekerToken, _ := a.signIn("+15550000002", "seeker")

	ride := map[string]any{"start": map[string]float64{"lat": 40.7128, "lon": -74.006}, "fare_per_seat": 30}
	a.call(http.MethodPost, "/api/v1/rides", riderToken, ride, nil, http.StatusForbidden)

	if w := a.upload("/api/v1/kyc/document", riderToken, "document", pngHeader); w.Code != http.StatusOK {
		t.Fatalf("submit document = %d %s", w.Code, w.Body.String())
	}
	approve := map[string]bool{"approved": true}
	reviewPath := "/api/v1/internal/kyc/" + riderID + "/review"
	a.call(http.MethodPost, reviewPath, "", approve, nil, http.StatusUnauthorized)
	var reviewed struct {
		KYCStatus string `json:"kyc_status"`
	}
	a.call(http.MethodPost, reviewPath, "", approve, &reviewed, http.StatusOK, "X-Review-Token", reviewToken)
	if reviewed.KYCStatus != "verified" {
		t.Fatalf("kyc_status = %q, want verified", reviewed.KYCStatus)
	}

	var created struct {
		ID string `json:"id"`
	}
	a.call(http.MethodPost, "/api/v1/rides", riderToken, ride, &created, http.StatusCreated)

	var next struct {
		ID         string  `json:"id"`
		DistanceKm float64 `json:"distance_km"`
	}
	a.call(http.MethodGet, "/api/v1/feed/next?lat=40.7128&lon=-74.006", seekerToken, nil, &next, http.StatusOK)
	if next.ID != created.ID {
		t.Fatalf("feed next = %s, want %s", next.ID, created.ID)
	}

	var swiped struct {
		IsMatch bool `json:"is_match"`
		Match   struct {
			ID string `json:"id"`
		} `json:"match"`
	}
	a.call(http.MethodPost, "/api/v1/swipes", seekerToken, map[string]string{"ride_id": created.ID, "action": "like"}, &swiped, http.StatusOK)
	if !swiped.IsMatch {
		t.Fatal("like did not open a match")
	}
	matchPath := "/api/v1/matches/" + swiped.Match.ID
	if w := a.do(http.MethodGet, "/api/v1/feed/next?lat=40.7128&lon=-74.006", seekerToken, nil, ""); w.Code != http.StatusNoContent {
		t.Errorf("feed after swipe = %d, want 204", w.Code)
	}

	a.call(http.MethodPost, matchPath+"/respond", seekerToken, map[string]bool{"accepted": true}, nil, http.StatusForbidden)
	a.call(http.MethodPost, matchPath+"/respond", riderToken, map[string]bool{"accepted": true}, nil, http.StatusOK)
	a.call(http.MethodPost, "/api/v1/rides/"+created.ID+"/start", riderToken, nil, nil, http.StatusOK)
	a.call(http.MethodPost, "/api/v1/rides/"+created.ID+"/complete", riderToken, nil, nil, http.StatusOK)

	var fare struct {
		Total float64 `json:"total"`
	}
	a.call(http.MethodGet, matchPath+"/fare", seekerToken, nil, &fare, http.StatusOK)
	if fare.Total != 31.5 {
		t.Errorf("fare total = %v, want 31.5", fare.Total)
	}

	var rated struct {
		MutualDate   bool   `json:"mutual_date"`
		ClientSecret string `json:"client_secret"`
		Payment      struct {
			ID     string  `json:"id"`
			Amount float64 `json:"amount"`
			Status string  `json:"status"`
		} `json:"payment"`
	}
	a.call(http.MethodPost, matchPath+"/ratings", seekerToken, map[string]any{"type": "ride", "stars": 5}, &rated, http.StatusOK)
	if rated.MutualDate || rated.Payment.Status != "pending" || rated.Payment.Amount != 31.5 || rated.ClientSecret == "" {
		t.Fatalf("rating result = %+v", rated)
	}

	paymentPath := "/api/v1/payments/" + rated.Payment.ID
	a.call(http.MethodPost, paymentPath+"/confirm", seekerToken, map[string]string{"payment_method_id": "pm_card_chargeDeclined"}, nil, http.StatusPaymentRequired)
	a.call(http.MethodPost, paymentPath+"/confirm", seekerToken, map[string]string{"payment_method_id": "pm_card_visa"}, nil, http.StatusOK)
	a.call(http.MethodPost, paymentPath+"/confirm", seekerToken, map[string]string{"payment_method_id": "pm_card_visa"}, nil, http.StatusConflict)

	var paid struct {
		Status string `json:"status"`
	}
	a.call(http.MethodGet, paymentPath, riderToken, nil, &paid, http.StatusOK)
	if paid.Status != "completed" {
		t.Errorf("payment status = %q, want completed", paid.Status)
	}
	var finished struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	a.call(http.MethodGet, "/api/v1/rides/"+created.ID, riderToken, nil, &finished, http.StatusOK)
	if finished.Status != "completed" || finished.PaymentStatus != "paid" {
		t.Errorf("ride = %+v, want completed and paid", finished)
	}
}

func TestMutualDateFlowWaivesFare(t *testing.T) {
	a := newApp(t)
	riderToken, riderID := a.signIn("+15550000011", "rider")
	seekerToken, _ := a.signIn("+15550000012", "seeker")

	if w := a.upload("/api/v1/kyc/document", riderToken, "document", pngHeader); w.Code != http.StatusOK {
		t.Fatalf("submit document = %d", w.Code)
	}
	a.call(http.MethodPost, fmt.Sprintf("/api/v1/internal/kyc/%s/review", riderID), "", map[string]bool{"approved": true}, nil, http.StatusOK, "X-Review-Token", reviewToken)

	var ride struct {
		ID string `json:"id"`
	}
	a.call(http.MethodPost, "/api/v1/rides", riderToken, map[string]any{"start": map[string]float64{"lat": 1, "lon": 1}, "fare_per_seat": 12}, &ride, http.StatusCreated)

	var swiped struct {
		Match struct {
			ID string `json:"id"`
		} `json:"match"`
	}
	a.call(http.MethodPost, "/api/v1/swipes", seekerToken, map[string]string{"ride_id": ride.ID, "action": "super"}, &swiped, http.StatusOK)
	matchPath := "/api/v1/matches/" + swiped.Match.ID
	a.call(http.MethodPost, matchPath+"/respond", riderToken, map[string]bool{"accepted": true}, nil, http.StatusOK)
	a.call(http.MethodPatch, "/api/v1/rides/"+ride.ID+"/status", riderToken, map[string]string{"status": "in_progress"}, nil, http.StatusOK)
	a.call(http.MethodPatch, "/api/v1/rides/"+ride.ID+"/status", riderToken, map[string]string{"status": "completed"}, nil, http.StatusOK)

	a.call(http.MethodPost, matchPath+"/ratings", riderToken, map[string]any{"type": "date", "stars": 5}, nil, http.StatusOK)
	var rated struct {
		MutualDate bool `json:"mutual_date"`
		Payment    struct {
			Status string `json:"status"`
		} `json:"payment"`
	}
	a.call(http.MethodPost, matchPath+"/ratings", seekerToken, map[string]any{"type": "date", "stars": 4}, &rated, http.StatusOK)
	if !rated.MutualDate || rated.Payment.Status != "waived" {
		t.Fatalf("rating result = %+v, want waived mutual date", rated)
	}
	a.call(http.MethodPost, matchPath+"/payment-intent", seekerToken, nil, nil, http.StatusConflict)

	var ratings []map[string]any
	a.call(http.MethodGet, matchPath+"/ratings", riderToken, nil, &ratings, http.StatusOK)
	if len(ratings) != 2 {
		t.Errorf("len(ratings) = %d, want 2", len(ratings))
	}
}

func TestHealthReportsMemoryStack(t *testing.T) {
	a := newApp(t)
	var body struct {
		Status string `json:"status"`
	}
	a.call(http.MethodGet, "/health", "", nil, &body, http.StatusOK)
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
}
