package pumpfun

import "context"

// SampleCoins is the fallback universe used when the catalog is down. These
// are established mints, not live pump.fun launches, so a live screen of
// them returns near-empty results; they only keep the cycle loop exercised.
func SampleCoins() []Coin {
	return []Coin{
		{Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Name: "USD Coin", Symbol: "USDC"},
		{Mint: "So11111111111111111111111111111111111111112", Name: "Wrapped SOL", Symbol: "SOL"},
		{Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Name: "USDT", Symbol: "USDT"},
		{Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Name: "Bonk", Symbol: "BONK"},
		{Mint: "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr", Name: "POPCAT", Symbol: "POPCAT"},
	}
}

// StubCatalog serves a fixed universe of well-known mints for keyless demo
// runs. Paired with the bitquery stub it produces a populated dashboard
// without a single network call.
type StubCatalog struct{}

// NewStubCatalog creates a stub catalog.
func NewStubCatalog() *StubCatalog {
	return &StubCatalog{}
}

var stubUniverse = []Coin{
	{Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Name: "USD Coin", Symbol: "USDC", Creator: "stub-creator-usdc"},
	{Mint: "So11111111111111111111111111111111111111112", Name: "Wrapped SOL", Symbol: "SOL", Creator: "stub-creator-sol"},
	{Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Name: "USDT", Symbol: "USDT", Creator: "stub-creator-usdt"},
	{Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Name: "Bonk", Symbol: "BONK", Creator: "stub-creator-bonk"},
	{Mint: "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr", Name: "POPCAT", Symbol: "POPCAT", Creator: "stub-creator-popcat"},
	{Mint: "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm", Name: "dogwifhat", Symbol: "WIF", Creator: "stub-creator-wif"},
	{Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Name: "Jupiter", Symbol: "JUP", Creator: "stub-creator-jup"},
	{Mint: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Name: "Raydium", Symbol: "RAY", Creator: "stub-creator-ray"},
	{Mint: "HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3", Name: "Pyth Network", Symbol: "PYTH", Creator: "stub-creator-pyth"},
	{Mint: "jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL", Name: "Jito", Symbol: "JTO", Creator: "stub-creator-jto"},
	{Mint: "WENWENvqqNya429ubCdR81ZmD69brwQaaBYY6p3LCpk", Name: "Wen", Symbol: "WEN", Creator: "stub-creator-wen"},
	{Mint: "MEW1gQWJ3nEXg2qgERiKu7FAFj79PHvQVREQUzScPP5", Name: "cat in a dogs world", Symbol: "MEW", Creator: "stub-creator-mew"},
}

// NewTokens returns the stub universe.
func (s *StubCatalog) NewTokens(_ context.Context) ([]Coin, error) {
	coins := make([]Coin, len(stubUniverse))
	copy(coins, stubUniverse)
	return coins, nil
}

// TokenInfo returns metadata for a stub universe mint.
func (s *StubCatalog) TokenInfo(_ context.Context, mint string) (Info, error) {
	for _, coin := range stubUniverse {
		if coin.Mint == mint {
			return Info{
				Name:    coin.Name,
				Symbol:  coin.Symbol,
				Creator: coin.Creator,
			}, nil
		}
	}
	return Info{Name: "Unknown", Symbol: "UNKNOWN"}, nil
}
