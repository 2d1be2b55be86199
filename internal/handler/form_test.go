package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func (ts *testServer) browser(t *testing.T, method, path string, cookie *http.Cookie, fields map[string]string, logoName, logoType string, logoData []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if method == http.MethodPost && path == "/submit" {
		body, ct := multipartLogo(t, logoName, logoType, logoData, fields)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ct)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func acmeForm() map[string]string {
	return map[string]string{
		"companyName":   "Acme",
		"industry":      "Tech",
		"buyerPersona":  "CTO",
		"mainPainPoint": "Slow deployments",
		"useCase":       "CI/CD acceleration",
	}
}

func TestBrowserFormLifecycle(t *testing.T) {
	ts := newTestServer(t, okBackend, "", nil)

	w := ts.browser(t, http.MethodGet, "/", nil, nil, "", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Generate sales deck") {
		t.Fatalf("empty form: %d", w.Code)
	}
	cookie := sessionCookieFrom(t, w)

	invalid := acmeForm()
	invalid["companyName"] = ""
	w = ts.browser(t, http.MethodPost, "/submit", cookie, invalid, "", "", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("submit status = %d", w.Code)
	}
	page := ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
	if !strings.Contains(page, "Company name is required") {
		t.Fatal("field error not rendered")
	}
	if !strings.Contains(page, `value="Slow deployments"`) && !strings.Contains(page, ">Slow deployments</textarea>") {
		t.Fatal("entered values not kept")
	}

	w = ts.browser(t, http.MethodPost, "/submit", cookie, acmeForm(), "acme.png", "image/png", []byte("\x89PNG\r\n"))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("submit status = %d", w.Code)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		page = ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
		if strings.Contains(page, "Your deck is ready") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("never completed:\n%s", page)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(page, ts.backend.URL+"/download/abc123") {
		t.Fatal("download link missing")
	}
	if !strings.Contains(page, "10 slides") {
		t.Fatal("slide count missing")
	}

	if w := ts.browser(t, http.MethodPost, "/reset", cookie, nil, "", "", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("reset status = %d", w.Code)
	}
	page = ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
	if !strings.Contains(page, "Generate sales deck") || strings.Contains(page, "Acme") {
		t.Fatal("reset did not clear the form")
	}
}

func TestBrowserFormRejectsBadLogo(t *testing.T) {
	var backendCalled atomic.Bool
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		backendCalled.Store(true)
		okBackend(w, r)
	}, "", nil)

	cookie := sessionCookieFrom(t, ts.browser(t, http.MethodGet, "/", nil, nil, "", "", nil))
	ts.browser(t, http.MethodPost, "/submit", cookie, acmeForm(), "logo.bmp", "image/bmp", []byte("BM"))

	page := ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
	if !strings.Contains(page, "Please upload a PNG, JPEG, or GIF image") {
		t.Fatal("file error not rendered")
	}
	if strings.Contains(page, "Generating your sales deck") {
		t.Fatal("form went to the loading view with a rejected logo")
	}
	if backendCalled.Load() {
		t.Fatal("generation service called with a rejected logo")
	}

	// Submitting again without choosing a file continues without a logo.
	ts.browser(t, http.MethodPost, "/submit", cookie, acmeForm(), "", "", nil)
	deadline := time.Now().Add(3 * time.Second)
	for {
		page = ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
		if strings.Contains(page, "Your deck is ready") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("resubmit without a file never completed:\n%s", page)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBrowserShowsServerError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"OpenAI quota exceeded"}`))
	}, "", nil)

	cookie := sessionCookieFrom(t, ts.browser(t, http.MethodGet, "/", nil, nil, "", "", nil))
	ts.browser(t, http.MethodPost, "/submit", cookie, acmeForm(), "", "", nil)

	deadline := time.Now().Add(3 * time.Second)
	for {
		page := ts.browser(t, http.MethodGet, "/", cookie, nil, "", "", nil).Body.String()
		if strings.Contains(page, "OpenAI quota exceeded") {
			if !strings.Contains(page, `value="Acme"`) {
				t.Fatal("field values lost after server error")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("error never rendered:\n%s", page)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
