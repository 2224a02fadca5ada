package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess       = 0
	CodeParamError    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeServerError   = 500
	CodeBusinessError = 1000
)

// 业务错误码
// 1001-1019 结算与支付；1020-1039 优惠券；1040-1059 钱包；1060- 预约
const (
	CodeOrderNotFound      = 1001
	CodeOrderStatusInvalid = 1002
	CodeOrderExpired       = 1003
	CodeSignatureInvalid   = 1004
	CodePaymentFailed      = 1005

	CodeCouponNotFound     = 1020
	CodeCouponInactive     = 1021
	CodeCouponExpired      = 1022
	CodeCouponBelowMinCart = 1023
	CodeCouponExhausted    = 1024

	CodeWalletNotFound   = 1040
	CodeBalanceNotEnough = 1041
	CodeInvalidAmount    = 1042
	CodeOfferNotFound    = 1043

	CodeBookingNotFound   = 1060
	CodeInvalidTransition = 1061
	CodePermissionDenied  = 1062
	CodeAlreadyRewarded   = 1063
	CodeProductNotFound   = 1064
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, CodeParamError, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, CodeForbidden, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, CodeServerError, message)
}

func BusinessError(c *gin.Context, code int, message string) {
	Error(c, code, message)
}
