package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateAuthorization(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"pi_123","status":"requires_capture","amount":10500}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk_test_abc", srv.URL)
	pi, err := c.CreateAuthorization(context.Background(), 10500, "usd", "cus_1", "acct_1", 525)
	if err != nil {
		t.Fatalf("CreateAuthorization: %v", err)
	}

	if gotPath != "/payment_intents" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk_test_abc" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotForm["amount"][0] != "10500" {
		t.Errorf("amount = %v", gotForm["amount"])
	}
	if gotForm["capture_method"][0] != "manual" {
		t.Errorf("capture_method = %v", gotForm["capture_method"])
	}
	if gotForm["transfer_data[destination]"][0] != "acct_1" {
		t.Errorf("destination = %v", gotForm["transfer_data[destination]"])
	}
	if gotForm["application_fee_amount"][0] != "525" {
		t.Errorf("application_fee_amount = %v", gotForm["application_fee_amount"])
	}
	if pi.ID != "pi_123" || pi.Status != "requires_capture" {
		t.Errorf("unexpected intent: %+v", pi)
	}
}

func TestCaptureAuthorization(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"pi_123","status":"succeeded","amount":10500}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk_test", srv.URL)
	pi, err := c.CaptureAuthorization(context.Background(), "pi_123", 10500)
	if err != nil {
		t.Fatalf("CaptureAuthorization: %v", err)
	}

	if gotPath != "/payment_intents/pi_123/capture" {
		t.Errorf("path = %q", gotPath)
	}
	if gotForm["amount_to_capture"][0] != "10500" {
		t.Errorf("amount_to_capture = %v", gotForm["amount_to_capture"])
	}
	if pi.Status != "succeeded" {
		t.Errorf("status = %q", pi.Status)
	}
}

func TestCancelAuthorization(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":"pi_9","status":"canceled"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk_test", srv.URL)
	if err := c.CancelAuthorization(context.Background(), "pi_9"); err != nil {
		t.Fatalf("CancelAuthorization: %v", err)
	}
	if gotPath != "/payment_intents/pi_9/cancel" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestCreateTransfer(t *testing.T) {
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Write([]byte(`{"id":"tr_1","amount":9500,"destination":"acct_7"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk_test", srv.URL)
	tr, err := c.CreateTransfer(context.Background(), 9500, "usd", "acct_7", 42)
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	if gotForm["destination"][0] != "acct_7" {
		t.Errorf("destination = %v", gotForm["destination"])
	}
	if gotForm["metadata[auction_id]"][0] != "42" {
		t.Errorf("metadata = %v", gotForm["metadata[auction_id]"])
	}
	if tr.ID != "tr_1" || tr.Amount != 9500 {
		t.Errorf("unexpected transfer: %+v", tr)
	}
}

func TestAPIErrorParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("sk_test", srv.URL)
	_, err := c.CreateAuthorization(context.Background(), 100, "usd", "cus_1", "acct_1", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Your card was declined.") {
		t.Errorf("error should carry the processor message, got %v", err)
	}
}
