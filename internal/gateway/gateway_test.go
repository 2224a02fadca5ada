package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"homeserve/internal/config"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMACSignature(t *testing.T) {
	const secret = "test_secret"

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		wantErr   error
	}{
		{
			name:      "正确签名通过",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: sign("order_abc", "pay_123", secret),
			wantErr:   nil,
		},
		{
			name:      "签名被篡改",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: "deadbeef",
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:      "凭证对应另一笔支付",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: sign("order_abc", "pay_456", secret),
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:      "空签名",
			orderID:   "order_abc",
			paymentID: "pay_123",
			signature: "",
			wantErr:   ErrSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyHMACSignature(tt.orderID, tt.paymentID, tt.signature, secret)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyHMACSignature() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRazorpayClientCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("请求路径 = %s, want /orders", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_test" || pass != "secret_test" {
			t.Error("Basic Auth 凭证不正确")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_xyz","status":"created"}`))
	}))
	defer srv.Close()

	client := NewRazorpayClient(&config.GatewayConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		TimeoutMS: 2000,
	})

	gatewayOrderID, err := client.CreateOrder(context.Background(), 115000, "INR", "ORD20260601001")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if gatewayOrderID != "order_xyz" {
		t.Errorf("CreateOrder() = %s, want order_xyz", gatewayOrderID)
	}
}

func TestRazorpayClientCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRazorpayClient(&config.GatewayConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		TimeoutMS: 2000,
	})

	_, err := client.CreateOrder(context.Background(), 115000, "INR", "ORD20260601001")
	if !errors.Is(err, ErrGatewayRequest) {
		t.Errorf("CreateOrder() error = %v, want ErrGatewayRequest", err)
	}
}

func TestRazorpayClientVerifySignature(t *testing.T) {
	client := NewRazorpayClient(&config.GatewayConfig{
		KeyID:     "key_test",
		KeySecret: "secret_test",
	})

	proof := Proof{
		GatewayOrderID: "order_xyz",
		PaymentID:      "pay_123",
		Signature:      sign("order_xyz", "pay_123", "secret_test"),
	}
	if err := client.VerifySignature(proof); err != nil {
		t.Errorf("VerifySignature() error = %v", err)
	}

	proof.Signature = sign("order_xyz", "pay_123", "wrong_secret")
	if err := client.VerifySignature(proof); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("VerifySignature() error = %v, want ErrSignatureInvalid", err)
	}
}
