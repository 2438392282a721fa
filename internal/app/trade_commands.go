package app

import (
	"context"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	execsigner "github.com/ggonzalez94/awaken-cli/internal/execution/signer"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/ggonzalez94/awaken-cli/internal/schema"
	"github.com/ggonzalez94/awaken-cli/internal/trade"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type signerArgs struct {
	keySource  string
	privateKey string
}

func addSignerFlags(cmd *cobra.Command, args *signerArgs) {
	cmd.Flags().StringVar(&args.keySource, "key-source", execsigner.KeySourceAuto, "Key source (auto|env|file|keystore)")
	cmd.Flags().StringVar(&args.privateKey, "private-key", "", "Hex private key override (prefer AELF_PRIVATE_KEY)")
}

func markMutating(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[schema.AnnotationMutating] = "true"
}

func (s *runtimeState) newTradeService(args signerArgs) (*trade.Service, error) {
	txSigner, err := execsigner.NewLocalSignerFromInputs(args.keySource, args.privateKey)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSigner, "load signer", err)
	}
	if err := s.ensureActionStore(); err != nil {
		return nil, err
	}
	poller := execution.NewPoller(s.chainClient, s.settings.ConfirmAttempts, s.settings.ConfirmInterval)
	executor := execution.NewExecutor(s.chainClient, txSigner, poller, s.actionStore)
	return trade.New(s.network, s.query, executor, trade.Options{
		ApprovalMultiple: s.settings.ApprovalMultiple,
		DefaultSlippage:  s.settings.DefaultSlippage,
	})
}

// runTrade executes a signed workflow under the execution timeout and
// reports the node as the provider.
func (s *runtimeState) runTrade(cmd *cobra.Command, args signerArgs, run func(ctx context.Context, svc *trade.Service) (any, error)) error {
	s.resetCommandDiagnostics()
	path := trimRootPath(cmd.CommandPath())
	svc, err := s.newTradeService(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.settings.ExecutionTimeout)
	defer cancel()

	start := time.Now()
	data, err := run(ctx, svc)
	status := []model.ProviderStatus{{Name: nodeProviderInfo(s.network).Name, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
	s.captureCommandDiagnostics(nil, status, false)
	if err != nil {
		s.logger.Info("workflow failed", zap.String("command", path), zap.Error(err))
		return err
	}
	return s.emitSuccess(path, data, nil, cacheMetaBypass(), status, false)
}

func (s *runtimeState) newSwapCommand() *cobra.Command {
	var tokenIn, tokenOut, amountIn, slippage string
	var signer signerArgs
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount along the best route",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTrade(cmd, signer, func(ctx context.Context, svc *trade.Service) (any, error) {
				return svc.ExecuteSwap(ctx, trade.SwapRequest{
					SymbolIn:  tokenIn,
					SymbolOut: tokenOut,
					AmountIn:  amountIn,
					Slippage:  slippage,
				})
			})
		},
	}
	cmd.Flags().StringVar(&tokenIn, "token-in", "", "Input token symbol")
	cmd.Flags().StringVar(&tokenOut, "token-out", "", "Output token symbol")
	cmd.Flags().StringVar(&amountIn, "amount-in", "", "Input amount in human units")
	cmd.Flags().StringVar(&slippage, "slippage", "", "Slippage tolerance as a fraction (default from config, 0.005)")
	addSignerFlags(cmd, &signer)
	_ = cmd.MarkFlagRequired("token-in")
	_ = cmd.MarkFlagRequired("token-out")
	_ = cmd.MarkFlagRequired("amount-in")
	markMutating(cmd)
	return cmd
}

func (s *runtimeState) newApproveCommand() *cobra.Command {
	var symbol, spender, amount, amountRaw string
	var signer signerArgs
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a spender for an exact token amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTrade(cmd, signer, func(ctx context.Context, svc *trade.Service) (any, error) {
				return svc.ApproveTokenSpending(ctx, trade.ApproveRequest{Symbol: symbol, Spender: spender, Amount: amount, AmountRaw: amountRaw})
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Token symbol")
	cmd.Flags().StringVar(&spender, "spender", "", "Spender contract or address")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in human units")
	cmd.Flags().StringVar(&amountRaw, "amount-raw", "", "Amount in base units")
	addSignerFlags(cmd, &signer)
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("spender")
	markMutating(cmd)
	return cmd
}

func (s *runtimeState) newLiquidityAddCommand() *cobra.Command {
	var req trade.AddLiquidityRequest
	var signer signerArgs
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Deposit two tokens into a pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTrade(cmd, signer, func(ctx context.Context, svc *trade.Service) (any, error) {
				return svc.AddLiquidity(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.TokenA, "token-a", "", "First token symbol")
	cmd.Flags().StringVar(&req.TokenB, "token-b", "", "Second token symbol")
	cmd.Flags().StringVar(&req.AmountA, "amount-a", "", "Desired amount of token A in human units")
	cmd.Flags().StringVar(&req.AmountB, "amount-b", "", "Desired amount of token B in human units")
	cmd.Flags().StringVar(&req.FeeTier, "fee-rate", registry.DefaultFeeTier, "Fee tier in percent (0.05|0.1|0.3|3|5)")
	cmd.Flags().StringVar(&req.Slippage, "slippage", "", "Slippage tolerance as a fraction")
	addSignerFlags(cmd, &signer)
	_ = cmd.MarkFlagRequired("token-a")
	_ = cmd.MarkFlagRequired("token-b")
	_ = cmd.MarkFlagRequired("amount-a")
	_ = cmd.MarkFlagRequired("amount-b")
	markMutating(cmd)
	return cmd
}

func (s *runtimeState) newLiquidityRemoveCommand() *cobra.Command {
	var req trade.RemoveLiquidityRequest
	var signer signerArgs
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Burn LP tokens and withdraw both pool tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.runTrade(cmd, signer, func(ctx context.Context, svc *trade.Service) (any, error) {
				return svc.RemoveLiquidity(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&req.TokenA, "token-a", "", "First token symbol")
	cmd.Flags().StringVar(&req.TokenB, "token-b", "", "Second token symbol")
	cmd.Flags().StringVar(&req.LPAmount, "lp-amount", "", "LP amount to burn in human units")
	cmd.Flags().StringVar(&req.FeeTier, "fee-rate", registry.DefaultFeeTier, "Fee tier in percent (0.05|0.1|0.3|3|5)")
	cmd.Flags().StringVar(&req.Slippage, "slippage", "", "Slippage tolerance applied to expected amounts")
	cmd.Flags().StringVar(&req.ExpectedAmountA, "expected-amount-a", "", "Expected token A withdrawal in human units")
	cmd.Flags().StringVar(&req.ExpectedAmountB, "expected-amount-b", "", "Expected token B withdrawal in human units")
	addSignerFlags(cmd, &signer)
	_ = cmd.MarkFlagRequired("token-a")
	_ = cmd.MarkFlagRequired("token-b")
	_ = cmd.MarkFlagRequired("lp-amount")
	markMutating(cmd)
	return cmd
}
