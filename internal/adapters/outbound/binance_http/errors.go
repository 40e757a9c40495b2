package binance_http

import (
	"encoding/json"
	"net/http"

	"github.com/charleschow/futures-bot/internal/core/order"
)

// Error codes the exchange uses for credential and signature rejections.
const (
	codeInvalidSignature = -1022
	codeBadAPIKeyFormat  = -2014
	codeRejectedAPIKey   = -2015
)

type apiErrorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// parseAPIError maps a non-2xx response to AuthError or ExchangeError.
// Bodies that are not the usual {"code","msg"} shape are kept verbatim.
func parseAPIError(status int, body []byte) error {
	var payload apiErrorBody
	_ = json.Unmarshal(body, &payload)

	xerr := order.ExchangeError{
		Status: status,
		Code:   payload.Code,
		Msg:    payload.Msg,
		Body:   string(body),
	}

	if status == http.StatusUnauthorized || isAuthCode(payload.Code) {
		return &order.AuthError{ExchangeError: xerr}
	}
	return &xerr
}

func isAuthCode(code int) bool {
	switch code {
	case codeInvalidSignature, codeBadAPIKeyFormat, codeRejectedAPIKey:
		return true
	}
	return false
}
