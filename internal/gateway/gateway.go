package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrSignatureInvalid = errors.New("支付签名校验失败")
	ErrGatewayRequest   = errors.New("支付网关请求失败")
)

// Proof 客户端支付完成后回传的网关凭证
type Proof struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}

// Client 支付网关（外部协作方）
// 核心只依赖两件事：开单拿网关单号、用共享密钥验签
type Client interface {
	// CreateOrder 在网关侧开单，返回网关订单号
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	// VerifySignature 校验客户端回传的支付凭证
	VerifySignature(proof Proof) error
}

// VerifyHMACSignature 网关签名算法：HMAC-SHA256(orderID + "|" + paymentID, secret)
// 与网关共享 key_secret，比较时用常量时间比较防时序侧信道
func VerifyHMACSignature(gatewayOrderID, paymentID, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}
