package execution

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"vaultpilot/internal/chain"
	"vaultpilot/internal/config"
	"vaultpilot/internal/strategy"
)

// Mantle contracts. Lendle is an Aave V2 descendant, so its pool exposes
// deposit() with supply() kept as the fallback spelling.
const (
	usdcMantle chain.Address = "0x09bc4e0d864854c6afb6eb9a9cdf58ac190d0df9"
	usdeMantle chain.Address = "0x5d3a1ff2b6bab83b63cd9ad0787074081a52ef34"
	wmntMantle chain.Address = "0x78c1b0c915c4faa5fffa6cabf0219da63d7f4cb8"
	agniRouter chain.Address = "0x319b69888b0d11cec22caa5034e25fffbdc88421"
	lendlePool chain.Address = "0xecce86d3d3f1b33fe34794708b7074cde4abe9d4"
)

var (
	// mntWrapAmount is the fixed native deposit leg.
	mntWrapAmount = big.NewInt(1_000_000_000_000_000_000)
	// mntGasBuffer is the native balance reserved for gas on top of the
	// wrap amount.
	mntGasBuffer = big.NewInt(500_000_000_000_000_000)

	swapDeadlineWindow = 20 * time.Minute
)

// MantleFlow assembles the sequential USDC strategy on Mantle: swap USDC to
// USDe on Agni, lend the USDe on Lendle, then wrap a fixed slice of native
// MNT and lend that too.
type MantleFlow struct {
	reader   chain.Reader
	owner    chain.Address
	amountIn *big.Int // raw USDC units
	feeTiers []uint64
	now      func() time.Time
}

func NewMantleFlow(reader chain.Reader, owner chain.Address, amountIn *big.Int, cfg config.ExecutionConfig) *MantleFlow {
	return &MantleFlow{
		reader:   reader,
		owner:    owner,
		amountIn: amountIn,
		feeTiers: cfg.SwapFeeTiers,
		now:      time.Now,
	}
}

// CheckBalances verifies the account can fund every leg before anything is
// submitted: the full USDC swap amount, plus the wrap amount and a gas
// buffer in native MNT.
func (m *MantleFlow) CheckBalances(ctx context.Context) error {
	raw, err := m.reader.EthCall(ctx, strategy.ChainMantle, usdcMantle, chain.EncodeBalanceOf(m.owner))
	if err != nil {
		return fmt.Errorf("reading USDC balance: %w", err)
	}
	if usdc := chain.DecodeUint256(raw); usdc.Cmp(m.amountIn) < 0 {
		return fmt.Errorf("insufficient USDC balance: have %s, need %s", usdc, m.amountIn)
	}

	native, err := m.reader.NativeBalance(ctx, strategy.ChainMantle, m.owner)
	if err != nil {
		return fmt.Errorf("reading MNT balance: %w", err)
	}
	need := new(big.Int).Add(mntWrapAmount, mntGasBuffer)
	if native.Cmp(need) < 0 {
		return fmt.Errorf("insufficient MNT balance: have %s, need %s", native, need)
	}
	return nil
}

// Steps returns the flow's transactions in submission order.
func (m *MantleFlow) Steps() []Step {
	return []Step{
		{
			Name: "approve-usdc",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				// A standing allowance covering the swap amount makes the
				// approval a no-op. A failed read falls through to approving.
				raw, err := m.reader.EthCall(ctx, strategy.ChainMantle, usdcMantle, chain.EncodeAllowance(m.owner, agniRouter))
				if err == nil && chain.DecodeUint256(raw).Cmp(m.amountIn) >= 0 {
					return chain.Call{}, ErrSkipStep
				}
				return chain.Call{To: usdcMantle, Data: chain.EncodeApprove(agniRouter, m.amountIn)}, nil
			},
		},
		{
			Name:   "swap-usdc-usde",
			Params: m.feeTiers,
			Build: func(ctx context.Context, tier uint64) (chain.Call, error) {
				deadline := big.NewInt(m.now().Add(swapDeadlineWindow).Unix())
				data := chain.EncodeExactInputSingle(chain.SwapParams{
					TokenIn:           usdcMantle,
					TokenOut:          usdeMantle,
					FeeTier:           tier,
					Recipient:         m.owner,
					Deadline:          deadline,
					AmountIn:          m.amountIn,
					AmountOutMinimum:  big.NewInt(0),
					SqrtPriceLimitX96: big.NewInt(0),
				})
				return chain.Call{To: agniRouter, Data: data}, nil
			},
		},
		{
			Name: "approve-usde",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				balance, err := m.usdeBalance(ctx)
				if err != nil {
					return chain.Call{}, err
				}
				if balance.Sign() == 0 {
					return chain.Call{}, ErrSkipStep
				}
				return chain.Call{To: usdeMantle, Data: chain.EncodeApprove(lendlePool, balance)}, nil
			},
		},
		{
			Name: "deposit-usde",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				balance, err := m.usdeBalance(ctx)
				if err != nil {
					return chain.Call{}, err
				}
				if balance.Sign() == 0 {
					return chain.Call{}, ErrSkipStep
				}
				return chain.Call{To: lendlePool, Data: chain.EncodePoolDeposit(usdeMantle, balance, m.owner)}, nil
			},
			Fallback: func(ctx context.Context) (chain.Call, error) {
				balance, err := m.usdeBalance(ctx)
				if err != nil {
					return chain.Call{}, err
				}
				return chain.Call{To: lendlePool, Data: chain.EncodePoolSupply(usdeMantle, balance, m.owner)}, nil
			},
		},
		{
			Name: "wrap-mnt",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				return chain.Call{To: wmntMantle, Data: chain.EncodeWrapDeposit(), Value: mntWrapAmount}, nil
			},
		},
		{
			Name: "approve-wmnt",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				return chain.Call{To: wmntMantle, Data: chain.EncodeApprove(lendlePool, mntWrapAmount)}, nil
			},
		},
		{
			Name: "deposit-wmnt",
			Build: func(ctx context.Context, _ uint64) (chain.Call, error) {
				return chain.Call{To: lendlePool, Data: chain.EncodePoolDeposit(wmntMantle, mntWrapAmount, m.owner)}, nil
			},
			Fallback: func(ctx context.Context) (chain.Call, error) {
				return chain.Call{To: lendlePool, Data: chain.EncodePoolSupply(wmntMantle, mntWrapAmount, m.owner)}, nil
			},
		},
	}
}

func (m *MantleFlow) usdeBalance(ctx context.Context) (*big.Int, error) {
	raw, err := m.reader.EthCall(ctx, strategy.ChainMantle, usdeMantle, chain.EncodeBalanceOf(m.owner))
	if err != nil {
		return nil, fmt.Errorf("reading USDe balance: %w", err)
	}
	return chain.DecodeUint256(raw), nil
}
