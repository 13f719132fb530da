package protocol

import (
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"txScope/internal/model"
)

// functionSigs maps canonical function signatures to the category they hint at.
var functionSigs = map[string]model.Category{
	"swapExactTokensForTokens(uint256,uint256,address[],address,uint256)":                  model.CategoryDEX,
	"swapTokensForExactTokens(uint256,uint256,address[],address,uint256)":                  model.CategoryDEX,
	"swapExactETHForTokens(uint256,address[],address,uint256)":                             model.CategoryDEX,
	"swapExactTokensForETH(uint256,uint256,address[],address,uint256)":                     model.CategoryDEX,
	"swapETHForExactTokens(uint256,address[],address,uint256)":                             model.CategoryDEX,
	"addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)":        model.CategoryDEX,
	"addLiquidityETH(address,uint256,uint256,uint256,address,uint256)":                     model.CategoryDEX,
	"removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)":             model.CategoryDEX,
	"exactInputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))":   model.CategoryDEX,
	"exactInput((bytes,address,uint256,uint256,uint256))":                                  model.CategoryDEX,
	"exactOutputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))":  model.CategoryDEX,
	"multicall(uint256,bytes[])":                                                           model.CategoryDEX,
	"execute(bytes,bytes[],uint256)":                                                       model.CategoryDEX,
	"execute(bytes,bytes[])":                                                               model.CategoryDEX,
	"swap(address,(address,address,address,address,uint256,uint256,uint256),bytes,bytes)":  model.CategoryDEX,
	"swap(uint256,uint256,address,bytes)":                                                  model.CategoryDEX,
	"exchange(int128,int128,uint256,uint256)":                                              model.CategoryDEX,
	"deposit(address,uint256,address,uint16)":                                              model.CategoryLending,
	"supply(address,uint256,address,uint16)":                                               model.CategoryLending,
	"borrow(address,uint256,uint256,uint16,address)":                                       model.CategoryLending,
	"repay(address,uint256,uint256,address)":                                               model.CategoryLending,
	"withdraw(address,uint256,address)":                                                    model.CategoryLending,
	"liquidationCall(address,address,address,uint256,bool)":                                model.CategoryLending,
	"flashLoan(address,address[],uint256[],uint256[],address,bytes,uint16)":                model.CategoryLending,
	"enterMarkets(address[])":                                                              model.CategoryLending,
	"mint(uint256)":                                                                        model.CategoryLending,
	"redeem(uint256)":                                                                      model.CategoryLending,
	"borrow(uint256)":                                                                      model.CategoryLending,
	"repayBorrow(uint256)":                                                                 model.CategoryLending,
	"stake(uint256)":                                                                       model.CategoryYieldFarming,
	"getReward()":                                                                          model.CategoryYieldFarming,
	"exit()":                                                                               model.CategoryYieldFarming,
	"deposit(uint256,uint256)":                                                             model.CategoryYieldFarming,
	"deposit(uint256,uint256,bool)":                                                        model.CategoryYieldFarming,
	"harvest(uint256,address)":                                                             model.CategoryYieldFarming,
	"emergencyWithdraw(uint256)":                                                           model.CategoryYieldFarming,
	"submit(address)":                                                                      model.CategoryStaking,
	"depositETH(uint32,bytes)":                                                             model.CategoryBridge,
	"depositERC20To(address,address,address,uint256,uint32,bytes)":                         model.CategoryBridge,
	"bridgeETHTo(address,uint32,bytes)":                                                    model.CategoryBridge,
	"sendMessage(address,bytes,uint32)":                                                    model.CategoryBridge,
	"depositEth()":                                                                         model.CategoryBridge,
	"createRetryableTicket(address,uint256,uint256,address,address,uint256,uint256,bytes)": model.CategoryBridge,
	"swapETH(uint16,address,address,uint256,uint256)":                                      model.CategoryBridge,
	"transfer(address,uint256)":                                                            model.CategoryUnknown,
	"approve(address,uint256)":                                                             model.CategoryUnknown,
	"transferFrom(address,address,uint256)":                                                model.CategoryUnknown,
	"safeTransferFrom(address,address,uint256)":                                            model.CategoryUnknown,
	"setApprovalForAll(address,bool)":                                                      model.CategoryUnknown,
	"deposit()":                                                                            model.CategoryUnknown,
	"withdraw(uint256)":                                                                    model.CategoryUnknown,
}

// eventSigs lists protocol events whose name doubles as an action.
var eventSigs = []string{
	"Swap(address,uint256,uint256,uint256,uint256,address)",
	"Swap(address,address,int256,int256,uint160,uint128,int24)",
	"Sync(uint112,uint112)",
	"Mint(address,uint256,uint256)",
	"Burn(address,uint256,uint256,address)",
	"TokenExchange(address,int128,uint256,int128,uint256)",
	"Supply(address,address,address,uint256,uint16)",
	"Borrow(address,address,address,uint256,uint8,uint256,uint16)",
	"Repay(address,address,address,uint256,bool)",
	"LiquidationCall(address,address,address,uint256,uint256,address,bool)",
	"Deposit(address,uint256)",
	"Withdrawal(address,uint256)",
	"Staked(address,uint256)",
	"Withdrawn(address,uint256)",
	"RewardPaid(address,uint256)",
	"Submitted(address,uint256,address)",
	"SentMessage(address,address,bytes,uint256,uint256)",
	"ETHDepositInitiated(address,address,uint256,bytes)",
}

// Method is a known function selector.
type Method struct {
	Name     string
	Category model.Category
}

type signatureTables struct {
	methods map[[4]byte]Method
	events  map[common.Hash]string
}

func buildSignatureTables() signatureTables {
	tables := signatureTables{
		methods: make(map[[4]byte]Method, len(functionSigs)),
		events:  make(map[common.Hash]string, len(eventSigs)),
	}
	for sig, category := range functionSigs {
		tables.methods[selector(sig)] = Method{Name: sigName(sig), Category: category}
	}
	for _, sig := range eventSigs {
		tables.events[crypto.Keccak256Hash([]byte(sig))] = sigName(sig)
	}
	return tables
}

func selector(signature string) [4]byte {
	var out [4]byte
	copy(out[:], crypto.Keccak256([]byte(signature))[:4])
	return out
}

func sigName(signature string) string {
	if i := strings.IndexByte(signature, '('); i >= 0 {
		return signature[:i]
	}
	return signature
}

// Humanize turns a camelCase identifier into spaced title words.
func Humanize(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		prev := runes[i-1]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if unicode.IsUpper(r) && (unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower)) {
			b.WriteByte(' ')
		}
		if unicode.IsDigit(r) && !unicode.IsDigit(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
