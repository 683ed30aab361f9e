package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/celo-org/gas-snap/internal/config"
	"github.com/celo-org/gas-snap/internal/currency"
	"github.com/celo-org/gas-snap/internal/entity"
	"github.com/celo-org/gas-snap/internal/pkg/metrics"
	"github.com/celo-org/gas-snap/internal/pkg/utils"
	"github.com/celo-org/gas-snap/internal/port"
)

const celoDecimals = 18

// transactionServiceImpl implements the TransactionService interface. It
// drives a submission through confirmation, fee-currency override, signing
// and receipt wait.
type transactionServiceImpl struct {
	chain    port.ChainClient
	resolver port.FeeCurrencyResolver
	signer   port.Signer
	dialog   port.Dialog
	cfg      *config.Config
	logger   *zap.Logger
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(
	chain port.ChainClient,
	resolver port.FeeCurrencyResolver,
	txSigner port.Signer,
	userDialog port.Dialog,
	cfg *config.Config,
	logger *zap.Logger,
) port.TransactionService {
	return &transactionServiceImpl{
		chain:    chain,
		resolver: resolver,
		signer:   txSigner,
		dialog:   userDialog,
		cfg:      cfg,
		logger:   logger.Named("TransactionService"),
	}
}

// SubmitTransaction runs the full submission flow. Failures surfaced to the
// user through a dialog are also returned to the caller.
func (s *transactionServiceImpl) SubmitTransaction(ctx context.Context, tx *entity.DraftTransaction) (*entity.SubmissionResult, error) {
	network := s.chain.Network()

	if tx.Value == nil {
		tx.Value = big.NewInt(0)
	}

	key, err := s.signer.DeriveKeyPair(tx.From)
	if err != nil {
		if tx.From != nil {
			s.alert(ctx, []string{fmt.Sprintf(
				"The transaction specifies from %s however that address could not be signed by any of the configured accounts.",
				tx.From.Hex())})
		}
		return nil, err
	}
	if tx.From == nil {
		from := key.Address
		tx.From = &from
	}

	approved, err := s.dialog.Confirm(ctx, s.confirmationContent(tx))
	if err != nil {
		return nil, fmt.Errorf("confirmation dialog failed: %w", err)
	}
	if !approved {
		metrics.DialogOutcomes.WithLabelValues("confirmation", "declined").Inc()
		s.logger.Info("User rejected the transaction")
		return nil, &entity.RejectionError{}
	}
	metrics.DialogOutcomes.WithLabelValues("confirmation", "approved").Inc()

	if err := s.overrideFeeCurrency(ctx, tx, network); err != nil {
		return nil, err
	}

	return s.submit(ctx, tx, key, network)
}

// overrideFeeCurrency fills in the fee currency, resolving a suggestion when
// the draft has none, and lets the user replace it with one of the known
// currency names.
func (s *transactionServiceImpl) overrideFeeCurrency(ctx context.Context, tx *entity.DraftTransaction, network entity.Network) error {
	if tx.FeeCurrency == nil {
		resolved, err := s.resolver.ResolveOptimalFeeCurrency(ctx, tx, *tx.From)
		if err != nil {
			s.logger.Error("Fee currency resolution failed", zap.Error(err))
			s.alert(ctx, []string{err.Error()})
			return err
		}
		tx.FeeCurrency = resolved
	}

	suggested, err := currency.NameFromAddress(tx.FeeCurrency, network)
	if err != nil {
		s.alert(ctx, []string{err.Error()})
		return err
	}

	input, ok, err := s.dialog.Prompt(ctx, []string{
		fmt.Sprintf("The suggested gas currency based on your balances is %s.", suggested),
		"Press submit to continue with it, or enter another currency (celo, cusd, ceur or creal).",
	}, string(suggested))
	if err != nil {
		return fmt.Errorf("override dialog failed: %w", err)
	}
	if !ok {
		metrics.DialogOutcomes.WithLabelValues("prompt", "cancelled").Inc()
		s.logger.Info("User cancelled the currency override")
		return &entity.RejectionError{}
	}

	name, valid := currency.ParseName(input)
	if !valid {
		metrics.DialogOutcomes.WithLabelValues("prompt", "invalid").Inc()
		s.logger.Info("User entered an unrecognized currency", zap.String("input", input))
		return &entity.InvalidCurrencyError{Input: input}
	}
	metrics.DialogOutcomes.WithLabelValues("prompt", "submitted").Inc()

	address, err := currency.AddressFromName(name, network)
	if err != nil {
		return err
	}
	tx.FeeCurrency = address
	return nil
}

func (s *transactionServiceImpl) submit(ctx context.Context, tx *entity.DraftTransaction, key *entity.KeyPair, network entity.Network) (*entity.SubmissionResult, error) {
	gasEstimate, err := s.chain.EstimateGas(ctx, tx)
	if err != nil {
		return nil, s.fail(ctx, network, err)
	}
	tx.GasLimit = new(big.Int).Mul(gasEstimate, big.NewInt(SafetyMultiplier))

	tx.GasPrice, err = s.chain.SuggestGasPrice(ctx, tx.FeeCurrency)
	if err != nil {
		return nil, s.fail(ctx, network, err)
	}

	started := time.Now()
	txHash, err := s.chain.SendTransaction(ctx, tx, key)
	if err != nil {
		return nil, s.fail(ctx, network, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.RpcClient.ReceiptTimeoutMs)*time.Millisecond)
	defer cancel()
	receipt, err := s.chain.WaitMined(waitCtx, txHash)
	if err != nil {
		return nil, s.fail(ctx, network, err)
	}
	if receipt.Status == 0 {
		return nil, s.fail(ctx, network, fmt.Errorf("transaction %s reverted", txHash.Hex()))
	}

	metrics.SubmissionsTotal.WithLabelValues(network.Identifier, "succeeded").Inc()
	metrics.SubmissionDuration.WithLabelValues(network.Identifier).Observe(time.Since(started).Seconds())

	explorerURL := network.TxURL(txHash.Hex())
	s.logger.Info("Transaction mined",
		zap.String("hash", txHash.Hex()),
		zap.String("explorerUrl", explorerURL))

	s.alert(ctx, []string{
		"Your transaction succeeded!",
		fmt.Sprintf("Transaction hash: %s", txHash.Hex()),
		explorerURL,
	})
	return &entity.SubmissionResult{TxHash: txHash, ExplorerURL: explorerURL}, nil
}

// fail notifies the user about a submission failure and returns the error
// that the caller should see. Balance shortfalls get the fixed remediation
// message, everything else is passed through verbatim.
func (s *transactionServiceImpl) fail(ctx context.Context, network entity.Network, err error) error {
	metrics.SubmissionsTotal.WithLabelValues(network.Identifier, "failed").Inc()
	s.logger.Error("Transaction submission failed", zap.Error(err))

	var insufficientFunds *entity.InsufficientFundsError
	if errors.As(err, &insufficientFunds) {
		s.alert(ctx, []string{entity.InsufficientFundsMessage})
		return err
	}

	s.alert(ctx, []string{err.Error()})
	return &entity.SubmissionError{Cause: err}
}

// alert is a best-effort notification; a broken dialog bridge must not mask
// the underlying outcome.
func (s *transactionServiceImpl) alert(ctx context.Context, content []string) {
	if err := s.dialog.Alert(ctx, content); err != nil {
		s.logger.Warn("Failed to show alert dialog", zap.Error(err))
	}
}

// confirmationContent renders the populated draft fields as dialog lines.
// Empty fields are left out entirely.
func (s *transactionServiceImpl) confirmationContent(tx *entity.DraftTransaction) []string {
	lines := []string{"Please confirm the following transaction:"}
	if tx.From != nil {
		lines = append(lines, fmt.Sprintf("From: %s", tx.From.Hex()))
	}
	if tx.To != nil {
		lines = append(lines, fmt.Sprintf("To: %s", tx.To.Hex()))
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		lines = append(lines, fmt.Sprintf("Value: %s CELO", utils.FormatBigInt(tx.Value, celoDecimals)))
	}
	if len(tx.Data) > 0 {
		lines = append(lines, fmt.Sprintf("Data: %s", hexutil.Encode(tx.Data)))
	}
	if tx.Nonce != nil {
		lines = append(lines, fmt.Sprintf("Nonce: %d", *tx.Nonce))
	}
	if tx.FeeCurrency != nil {
		lines = append(lines, fmt.Sprintf("Fee currency: %s", tx.FeeCurrency.Hex()))
	}
	if tx.GatewayFeeRecipient != nil {
		lines = append(lines, fmt.Sprintf("Gateway fee recipient: %s", tx.GatewayFeeRecipient.Hex()))
	}
	if tx.GatewayFee != nil && tx.GatewayFee.Sign() > 0 {
		lines = append(lines, fmt.Sprintf("Gateway fee: %s", tx.GatewayFee.String()))
	}
	return lines
}
