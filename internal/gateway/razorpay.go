package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"homeserve/internal/config"
)

// RazorpayClient razorpay 风格网关客户端
// 开单走 Basic Auth 的 REST 接口，验签在本地用 key_secret 完成，不回源
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayClient(cfg *config.GatewayConfig) *RazorpayClient {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RazorpayClient{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

type createOrderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:         amount,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status=%d body=%s", ErrGatewayRequest, resp.StatusCode, respBody)
	}

	var orderResp createOrderResponse
	if err := json.Unmarshal(respBody, &orderResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayRequest, err)
	}
	if orderResp.ID == "" {
		return "", fmt.Errorf("%w: 网关未返回订单号", ErrGatewayRequest)
	}

	return orderResp.ID, nil
}

func (c *RazorpayClient) VerifySignature(proof Proof) error {
	return VerifyHMACSignature(proof.GatewayOrderID, proof.PaymentID, proof.Signature, c.keySecret)
}

// KeyID 返回给前端 SDK 使用的公钥标识
func (c *RazorpayClient) KeyID() string {
	return c.keyID
}
