package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"chatline-platform/internal/account"
	"chatline-platform/internal/auth"
	"chatline-platform/internal/ledger"
	"chatline-platform/internal/message"
	"chatline-platform/internal/rbac"
	"chatline-platform/internal/session"
	"chatline-platform/internal/withdraw"
)

func init() { gin.SetMode(gin.TestMode) }

// identityMW stubs the auth middleware so handlers see an authenticated
// request without real tokens.
func identityMW(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), userID, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, _, _ string, _ io.Reader) (string, error) {
	f.calls++
	return f.url, f.err
}

func TestStatusFromErr(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrInvalidArgument, http.StatusBadRequest},
		{message.ErrNotFound, http.StatusNotFound},
		{session.ErrNotPending, http.StatusConflict},
		{session.ErrPendingExists, http.StatusConflict},
		{withdraw.ErrNoFunds, http.StatusUnprocessableEntity},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrInsufficientFunds, http.StatusConflict},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{account.ErrAccountBanned, http.StatusForbidden},
		{account.ErrAlreadyRegistered, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFromErr(tc.err); got != tc.want {
			t.Errorf("statusFromErr(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestChatterBusyRequiresChatterID(t *testing.T) {
	r := gin.New()
	r.GET("/v1/chatters/busy", Handlers{}.ChatterBusy)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/chatters/busy", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSessionCheckRequiresAuth(t *testing.T) {
	r := gin.New()
	r.GET("/v1/sessions/check", Handlers{}.SessionCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/sessions/check?chatter_id=c1", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginRejectsMalformedJSON(t *testing.T) {
	r := gin.New()
	r.POST("/v1/auth/login", Handlers{}.Login)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPurchasePlanRequiresScreenshot(t *testing.T) {
	r := gin.New()
	r.POST("/v1/purchase/plan", identityMW("u1", rbac.RoleUser), Handlers{Uploader: &fakeUploader{}}.PurchasePlan)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("chatter_id", "c1")
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase/plan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPurchasePlanSkipsUploadWhenValidationFails(t *testing.T) {
	up := &fakeUploader{url: "https://cdn/x.png"}
	h := Handlers{Sessions: session.NewService(nil), Uploader: up}

	r := gin.New()
	r.POST("/v1/purchase/plan", identityMW("u1", rbac.RoleUser), h.PurchasePlan)

	// Screenshot present, but transaction_id missing: the purchase is going
	// to be rejected, so nothing may reach object storage.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("chatter_id", "c1")
	_ = mw.WriteField("title", "Basic")
	_ = mw.WriteField("price", "500")
	_ = mw.WriteField("duration", "30")
	part, err := mw.CreateFormFile("screenshot", "pay.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("png bytes")); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/purchase/plan", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if up.calls != 0 {
		t.Fatalf("uploader called %d times for a rejected purchase, want 0", up.calls)
	}
}

func voiceRequest(t *testing.T, contentType string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("session_id", "s1")
	_ = mw.WriteField("receiver_id", "u2")

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="voice"; filename="note.webm"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatal(err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/voice-message/send", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSendVoiceRejectsNonAudioUpload(t *testing.T) {
	r := gin.New()
	// Admin identity bypasses the participant check so the upload gate is
	// what gets exercised.
	r.POST("/v1/voice-message/send", identityMW("admin1", rbac.RoleAdmin), Handlers{Uploader: &fakeUploader{}}.SendVoice)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, voiceRequest(t, "image/png", []byte("not audio")))

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestSendVoiceRejectsOversizedUpload(t *testing.T) {
	r := gin.New()
	h := Handlers{Uploader: &fakeUploader{}, MaxVoiceUploadBytes: 4}
	r.POST("/v1/voice-message/send", identityMW("admin1", rbac.RoleAdmin), h.SendVoice)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, voiceRequest(t, "audio/webm", []byte("way past the cap")))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
}

func TestAdminUpdateWithdrawRejectsMalformedJSON(t *testing.T) {
	r := gin.New()
	r.PUT("/v1/admin/withdraw-requests/:id/status", identityMW("admin1", rbac.RoleAdmin), Handlers{}.AdminUpdateWithdraw)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/admin/withdraw-requests/w1/status", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestChatterBalanceRequiresAuth(t *testing.T) {
	r := gin.New()
	r.GET("/v1/chatter/balance", Handlers{}.ChatterBalance)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/chatter/balance", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequestWithdrawRequiresAuth(t *testing.T) {
	r := gin.New()
	r.POST("/v1/withdraws", Handlers{}.RequestWithdraw)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/withdraws", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
