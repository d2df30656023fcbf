package feeds

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CHAINLINK REFERENCE FEED - On-chain FX/metals spot prices
// ═══════════════════════════════════════════════════════════════════════════════
//
// Last-resort reference when every HTTP provider is down: Chainlink publishes
// FX majors and metals against USD on Ethereum mainnet. Spot only, no OHLC —
// used for mark-to-market and sanity checks, never for factor extraction.
//

// feed addresses on Ethereum mainnet, all 8 decimals
var feedAddresses = map[string]struct {
	Address string
	Invert  bool // feed quotes XXX/USD; invert for USD/XXX symbols
}{
	"EURUSD": {Address: "0xb49f677943BC038e9857d61E7d053CaA2C1734C1"},
	"GBPUSD": {Address: "0x5c0Ab2d9b5a7ed9f470386e82BB36A3613cDd4b5"},
	"AUDUSD": {Address: "0x77F9710E7d0A19669A13c055F62cd80d313dF022"},
	"NZDUSD": {Address: "0x3977CFc9e4f29C184D4675f4EB8e0013236e5f3e"},
	"USDJPY": {Address: "0xBcE206caE7f0ec07b545EddE332A47C2F75bbEb3", Invert: true},
	"USDCHF": {Address: "0x449d117117838fFA61263B61dA6301AA2a88B13A", Invert: true},
	"USDCAD": {Address: "0xa34317DB73e77d453b1B8d04550c44D10e981C8e", Invert: true},
	"XAUUSD": {Address: "0x214eD9Da11D2fbe465a6fc601a91E62EbEc1a0D6"},
	"XAGUSD": {Address: "0x379589227b15F1a12195D3f2d90bBc9F31f95235"},
}

const feedDecimals = 8

// latestRoundData() selector
var latestRoundDataSig = []byte{0xfe, 0xaf, 0x96, 0x8c}

// ChainlinkFeed reads aggregator contracts over an Ethereum RPC.
type ChainlinkFeed struct {
	client *ethclient.Client
}

// NewChainlinkFeed dials the RPC endpoint.
func NewChainlinkFeed(rpcURL string) (*ChainlinkFeed, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chainlink rpc dial: %w", err)
	}
	return &ChainlinkFeed{client: client}, nil
}

// Supported reports whether a symbol has an on-chain feed.
func Supported(symbol string) bool {
	_, ok := feedAddresses[symbol]
	return ok
}

// SpotPrice reads the latest round for a symbol. Returns the price and the
// on-chain update time.
func (f *ChainlinkFeed) SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	feed, ok := feedAddresses[symbol]
	if !ok {
		return decimal.Zero, time.Time{}, fmt.Errorf("no chainlink feed for %s", symbol)
	}

	addr := common.HexToAddress(feed.Address)
	out, err := f.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: latestRoundDataSig}, nil)
	if err != nil {
		return decimal.Zero, time.Time{}, fmt.Errorf("latestRoundData %s: %w", symbol, err)
	}
	// (roundId, answer, startedAt, updatedAt, answeredInRound): 5 words
	if len(out) < 5*32 {
		return decimal.Zero, time.Time{}, fmt.Errorf("short response from %s feed", symbol)
	}

	answer := new(big.Int).SetBytes(out[32:64])
	updated := new(big.Int).SetBytes(out[96:128])
	if answer.Sign() <= 0 {
		return decimal.Zero, time.Time{}, fmt.Errorf("non-positive answer from %s feed", symbol)
	}

	price := decimal.NewFromBigInt(answer, -feedDecimals)
	if feed.Invert {
		price = decimal.NewFromInt(1).Div(price)
	}
	return price, time.Unix(updated.Int64(), 0).UTC(), nil
}

// Close releases the RPC connection.
func (f *ChainlinkFeed) Close() {
	f.client.Close()
}
