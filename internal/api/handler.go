// Package api exposes the JSON-RPC style HTTP surface for transaction
// submission.
package api

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/port"
)

const MethodSendTransaction = "celo_sendTransaction"

// RPCRequest is the inbound request envelope.
type RPCRequest struct {
	Method string    `json:"method"`
	Params RPCParams `json:"params"`
}

type RPCParams struct {
	Tx *TxPayload `json:"tx"`
}

// TxPayload carries the draft transaction as the client sends it: every
// field is a string so malformed values fail validation here instead of in
// JSON decoding.
type TxPayload struct {
	From                string `json:"from,omitempty"`
	To                  string `json:"to,omitempty"`
	Value               string `json:"value,omitempty"`
	Nonce               string `json:"nonce,omitempty"`
	Data                string `json:"data,omitempty"`
	FeeCurrency         string `json:"feeCurrency,omitempty"`
	GatewayFeeRecipient string `json:"gatewayFeeRecipient,omitempty"`
	GatewayFee          string `json:"gatewayFee,omitempty"`
}

// RPCResponse is the outbound envelope. Exactly one of Result and Error is
// set.
type RPCResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// TransactionHandler handles HTTP requests for transaction submission.
type TransactionHandler struct {
	txService port.TransactionService
	logger    *zap.Logger
}

// NewTransactionHandler creates a new instance of TransactionHandler.
func NewTransactionHandler(txService port.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		txService: txService,
		logger:    logger.Named("TransactionHandler"),
	}
}

// HandleRPC dispatches an inbound RPC envelope to the matching operation.
func (h *TransactionHandler) HandleRPC(c *gin.Context) {
	var req RPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RPCResponse{Error: "invalid request body"})
		return
	}

	switch req.Method {
	case MethodSendTransaction:
		h.handleSendTransaction(c, req.Params)
	default:
		h.logger.Warn("Unknown RPC method requested", zap.String("method", req.Method))
		c.JSON(http.StatusNotFound, RPCResponse{Error: entity.MethodNotFoundMessage})
	}
}

func (h *TransactionHandler) handleSendTransaction(c *gin.Context, params RPCParams) {
	if params.Tx == nil {
		c.JSON(http.StatusBadRequest, RPCResponse{Error: "missing tx parameter"})
		return
	}

	draft, err := params.Tx.ToDraft()
	if err != nil {
		c.JSON(http.StatusBadRequest, RPCResponse{Error: err.Error()})
		return
	}

	result, err := h.txService.SubmitTransaction(c.Request.Context(), draft)
	if err != nil {
		h.logger.Info("Transaction submission did not complete", zap.Error(err))
		c.JSON(statusForError(err), RPCResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, RPCResponse{Result: result})
}

// statusForError maps the error taxonomy onto HTTP status codes. User-side
// outcomes are client errors, chain failures are upstream errors.
func statusForError(err error) int {
	var (
		validationErr        *entity.ValidationError
		rejectionErr         *entity.RejectionError
		invalidCurrencyErr   *entity.InvalidCurrencyError
		unknownAddressErr    *entity.UnrecognizedCurrencyAddressError
		unknownNameErr       *entity.UnrecognizedCurrencyNameError
		unsupportedNetErr    *entity.UnsupportedNetworkError
		insufficientFundsErr *entity.InsufficientFundsError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &rejectionErr),
		errors.As(err, &invalidCurrencyErr),
		errors.As(err, &unknownAddressErr),
		errors.As(err, &unknownNameErr),
		errors.As(err, &unsupportedNetErr),
		errors.As(err, &insufficientFundsErr):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// ToDraft validates the payload and converts it into a draft transaction.
func (p *TxPayload) ToDraft() (*entity.DraftTransaction, error) {
	draft := &entity.DraftTransaction{}

	var err error
	if draft.From, err = parseAddress(p.From, "from"); err != nil {
		return nil, err
	}
	if draft.To, err = parseAddress(p.To, "to"); err != nil {
		return nil, err
	}
	if draft.FeeCurrency, err = parseAddress(p.FeeCurrency, "feeCurrency"); err != nil {
		return nil, err
	}
	if draft.GatewayFeeRecipient, err = parseAddress(p.GatewayFeeRecipient, "gatewayFeeRecipient"); err != nil {
		return nil, err
	}
	if draft.Value, err = parseQuantity(p.Value, "value"); err != nil {
		return nil, err
	}
	if draft.GatewayFee, err = parseQuantity(p.GatewayFee, "gatewayFee"); err != nil {
		return nil, err
	}
	if p.Nonce != "" {
		nonce, err := strconv.ParseUint(strings.TrimPrefix(p.Nonce, "0x"), nonceBase(p.Nonce), 64)
		if err != nil {
			return nil, &entity.ValidationError{Reason: "invalid nonce: " + p.Nonce}
		}
		draft.Nonce = &nonce
	}
	if p.Data != "" {
		data, err := hexutil.Decode(p.Data)
		if err != nil {
			return nil, &entity.ValidationError{Reason: "invalid data: " + p.Data}
		}
		draft.Data = data
	}
	return draft, nil
}

func nonceBase(raw string) int {
	if strings.HasPrefix(raw, "0x") {
		return 16
	}
	return 10
}

func parseAddress(raw, field string) (*common.Address, error) {
	if raw == "" {
		return nil, nil
	}
	if !common.IsHexAddress(raw) {
		return nil, &entity.ValidationError{Reason: "invalid " + field + " address: " + raw}
	}
	addr := common.HexToAddress(raw)
	return &addr, nil
}

// parseQuantity accepts a decimal or 0x-hex amount. Empty and bare "0x"
// inputs normalize to absent, which the orchestrator later coerces to zero.
func parseQuantity(raw, field string) (*big.Int, error) {
	if raw == "" || raw == "0x" {
		return nil, nil
	}
	value := new(big.Int)
	var ok bool
	if strings.HasPrefix(raw, "0x") {
		_, ok = value.SetString(strings.TrimPrefix(raw, "0x"), 16)
	} else {
		_, ok = value.SetString(raw, 10)
	}
	if !ok {
		return nil, &entity.ValidationError{Reason: "invalid " + field + ": " + raw}
	}
	return value, nil
}
