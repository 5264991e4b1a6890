package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaystackClient_Verify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/OF-123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"OF-123","amount":1240000,"currency":"NGN"}}`))
	}))
	defer server.Close()

	client := NewPaystackClient(server.URL+"/", "sk_test_abc", 5*time.Second, zap.NewNop())
	v, err := client.Verify(context.Background(), "OF-123")
	require.NoError(t, err)
	assert.Equal(t, &PaymentVerification{Reference: "OF-123", Status: "success", Amount: 1240000, Currency: "NGN"}, v)
}

func TestPaystackClient_VerifyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer server.Close()

	client := NewPaystackClient(server.URL, "sk_test_abc", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "OF-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction reference not found")
}

func TestPaystackClient_VerifyGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer server.Close()

	client := NewPaystackClient(server.URL, "sk", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "OF-1")
	assert.Error(t, err)
}

func TestResultFromVerification(t *testing.T) {
	intent := PaymentIntent{Reference: "OF-1", Amount: 1240000, Currency: "NGN"}

	tests := []struct {
		name string
		v    PaymentVerification
		want PaymentStatus
	}{
		{"success", PaymentVerification{Status: "success", Amount: 1240000, Currency: "ngn"}, PaymentSucceeded},
		{"abandoned", PaymentVerification{Status: "abandoned"}, PaymentCancelled},
		{"declined", PaymentVerification{Status: "failed", Amount: 1240000, Currency: "NGN"}, PaymentFailed},
		{"short amount", PaymentVerification{Status: "success", Amount: 124000, Currency: "NGN"}, PaymentFailed},
		{"wrong currency", PaymentVerification{Status: "success", Amount: 1240000, Currency: "USD"}, PaymentFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResultFromVerification(&tt.v, intent)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, "OF-1", got.Reference)
			if tt.want != PaymentSucceeded {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}
