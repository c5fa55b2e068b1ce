package bitquery

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LockAuthority is the pump.fun migration authority. LP tokens parked under
// it are out of circulation, so its balance share reads as the lock ratio.
const LockAuthority = "BesTLFfCP9tAuUDWnqPdtDXZRu5xK6XD8TrABXGBECuf"

// blockTimeLayout matches the formatted Block.Time.time field.
const blockTimeLayout = "2006-01-02 15:04:05"

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// FastStats is the cheap momentum read behind the primary gate: buy prints
// in the last minute (the per-minute rate by construction) and 1h volume.
type FastStats struct {
	BuysPerMinute float64
	VolumeSOL     decimal.Decimal
}

// SupplyMetrics describes who holds the token: total supply, the creator
// wallet's balance and the amount parked with the lock authority.
type SupplyMetrics struct {
	Supply      decimal.Decimal
	CreatorHeld decimal.Decimal
	LPLocked    decimal.Decimal
}

// Holder is one row of the top-holder leaderboard, largest first.
type Holder struct {
	Address string
	Amount  decimal.Decimal
}

// TradeRow is one swap in the lookback window, oldest first.
type TradeRow struct {
	At     time.Time
	Price  decimal.Decimal
	Amount decimal.Decimal
	Side   string
	Buyer  string
}

const fastStatsQuery = `
query FastStats($mint: String!, $since1m: DateTime!, $since1h: DateTime!) {
  buys: Solana {
    DEXTrades(
      where: {Trade: {Side: {Type: {is: "buy"}}, Currency: {MintAddress: {is: $mint}}, Dex: {ProtocolName: {is: "pump"}}}, Block: {Time: {since: $since1m}}}
    ) {
      count
    }
  }
  vol1h: Solana {
    DEXTradeByTokens(
      where: {Trade: {Currency: {MintAddress: {is: $mint}}, Dex: {ProtocolName: {is: "pump"}}}, Block: {Time: {since: $since1h}}}
    ) {
      volume: sum(of: Trade_Amount)
    }
  }
}`

type fastStatsData struct {
	Buys struct {
		DEXTrades []struct {
			Count decimal.Decimal `json:"count"`
		} `json:"DEXTrades"`
	} `json:"buys"`
	Vol1h struct {
		DEXTradeByTokens []struct {
			Volume decimal.Decimal `json:"volume"`
		} `json:"DEXTradeByTokens"`
	} `json:"vol1h"`
}

// FastStats fetches the primary-gate inputs for one mint.
func (c *Client) FastStats(ctx context.Context, mint string) (FastStats, error) {
	now := time.Now().UTC()
	vars := map[string]any{
		"mint":    mint,
		"since1m": now.Add(-time.Minute).Format(time.RFC3339),
		"since1h": now.Add(-time.Hour).Format(time.RFC3339),
	}

	var data fastStatsData
	if err := c.query(ctx, "FastStats", fastStatsQuery, vars, &data); err != nil {
		return FastStats{}, err
	}

	var out FastStats
	if rows := data.Buys.DEXTrades; len(rows) > 0 {
		out.BuysPerMinute = float64(rows[0].Count.IntPart())
	}
	if rows := data.Vol1h.DEXTradeByTokens; len(rows) > 0 {
		// Trade_Amount sums arrive in lamports.
		out.VolumeSOL = rows[0].Volume.Div(lamportsPerSOL)
	}
	return out, nil
}

const supplySideQuery = `
query SupplySide($token: String!, $creator: String!) {
  supply: Solana {
    TokenSupplyUpdates(
      where: {TokenSupplyUpdate: {Currency: {MintAddress: {is: $token}}}}
      limit: 1
      orderBy: {descending: Block_Slot}
    ) {
      TokenSupplyUpdate {
        balance: PostBalance(maximum: Block_Slot)
      }
    }
  }
  devHold: Solana {
    BalanceUpdates(
      where: {BalanceUpdate: {Currency: {MintAddress: {is: $token}}, Account: {Owner: {is: $creator}}}}
    ) {
      BalanceUpdate {
        balance: PostBalance(maximum: Block_Slot)
      }
    }
  }
  lpLocked: Solana {
    BalanceUpdates(
      where: {BalanceUpdate: {Currency: {MintAddress: {is: $token}}, Account: {Token: {Owner: {is: "` + LockAuthority + `"}}}}}
    ) {
      BalanceUpdate {
        balance: PostBalance(maximum: Block_Slot)
      }
    }
  }
}`

type balanceUpdates struct {
	BalanceUpdates []struct {
		BalanceUpdate struct {
			Balance decimal.Decimal `json:"balance"`
		} `json:"BalanceUpdate"`
	} `json:"BalanceUpdates"`
}

func (b balanceUpdates) first() decimal.Decimal {
	if len(b.BalanceUpdates) == 0 {
		return decimal.Zero
	}
	return b.BalanceUpdates[0].BalanceUpdate.Balance
}

type supplySideData struct {
	Supply struct {
		TokenSupplyUpdates []struct {
			TokenSupplyUpdate struct {
				Balance decimal.Decimal `json:"balance"`
			} `json:"TokenSupplyUpdate"`
		} `json:"TokenSupplyUpdates"`
	} `json:"supply"`
	DevHold  balanceUpdates `json:"devHold"`
	LPLocked balanceUpdates `json:"lpLocked"`
}

// SupplyMetrics fetches supply distribution for one mint. An unknown creator
// is passed through empty and simply matches no balance rows.
func (c *Client) SupplyMetrics(ctx context.Context, mint, creator string) (SupplyMetrics, error) {
	vars := map[string]any{"token": mint, "creator": creator}

	var data supplySideData
	if err := c.query(ctx, "SupplySide", supplySideQuery, vars, &data); err != nil {
		return SupplyMetrics{}, err
	}

	out := SupplyMetrics{
		CreatorHeld: data.DevHold.first(),
		LPLocked:    data.LPLocked.first(),
	}
	if rows := data.Supply.TokenSupplyUpdates; len(rows) > 0 {
		out.Supply = rows[0].TokenSupplyUpdate.Balance
	}
	return out, nil
}

const topHoldersQuery = `
query TopHolders($token: String!) {
  Solana {
    TokenHolders(
      where: {Token: {MintAddress: {is: $token}}}
      limit: 10
      orderBy: {descending: Balance_Amount}
    ) {
      Balance {
        Amount
      }
      Account {
        Address
      }
    }
  }
}`

type topHoldersData struct {
	Solana struct {
		TokenHolders []struct {
			Balance struct {
				Amount decimal.Decimal `json:"Amount"`
			} `json:"Balance"`
			Account struct {
				Address string `json:"Address"`
			} `json:"Account"`
		} `json:"TokenHolders"`
	} `json:"Solana"`
}

// TopHolders fetches the ten largest balances for one mint.
func (c *Client) TopHolders(ctx context.Context, mint string) ([]Holder, error) {
	var data topHoldersData
	if err := c.query(ctx, "TopHolders", topHoldersQuery, map[string]any{"token": mint}, &data); err != nil {
		return nil, err
	}

	holders := make([]Holder, 0, len(data.Solana.TokenHolders))
	for _, h := range data.Solana.TokenHolders {
		holders = append(holders, Holder{
			Address: h.Account.Address,
			Amount:  h.Balance.Amount,
		})
	}
	return holders, nil
}

const recentTradesQuery = `
query RecentTrades($token: String!, $since: DateTime!) {
  Solana {
    DEXTrades(
      where: {Trade: {Currency: {MintAddress: {is: $token}}, Dex: {ProtocolName: {is: "raydium"}}}, Block: {Time: {since: $since}}}
      orderBy: {ascending: Block_Time}
      limit: 100
    ) {
      Block {
        Time {
          time(format: "%Y-%m-%d %H:%M:%S")
        }
      }
      Trade {
        Amount
        Price
        Side {
          Type
        }
        Buy {
          Account {
            Address
          }
        }
      }
    }
  }
}`

type recentTradesData struct {
	Solana struct {
		DEXTrades []struct {
			Block struct {
				Time struct {
					Time string `json:"time"`
				} `json:"Time"`
			} `json:"Block"`
			Trade struct {
				Amount decimal.Decimal `json:"Amount"`
				Price  decimal.Decimal `json:"Price"`
				Side   struct {
					Type string `json:"Type"`
				} `json:"Side"`
				Buy struct {
					Account struct {
						Address string `json:"Address"`
					} `json:"Account"`
				} `json:"Buy"`
			} `json:"Trade"`
		} `json:"DEXTrades"`
	} `json:"Solana"`
}

// RecentTrades fetches the post-migration trade window for one mint, oldest
// first, capped at 100 rows. Curve-only tokens return an empty window.
func (c *Client) RecentTrades(ctx context.Context, mint string, lookback time.Duration) ([]TradeRow, error) {
	vars := map[string]any{
		"token": mint,
		"since": time.Now().UTC().Add(-lookback).Format(time.RFC3339),
	}

	var data recentTradesData
	if err := c.query(ctx, "RecentTrades", recentTradesQuery, vars, &data); err != nil {
		return nil, err
	}

	trades := make([]TradeRow, 0, len(data.Solana.DEXTrades))
	for _, row := range data.Solana.DEXTrades {
		at, err := time.Parse(blockTimeLayout, row.Block.Time.Time)
		if err != nil {
			at = time.Time{}
		}
		trades = append(trades, TradeRow{
			At:     at,
			Price:  row.Trade.Price,
			Amount: row.Trade.Amount,
			Side:   row.Trade.Side.Type,
			Buyer:  row.Trade.Buy.Account.Address,
		})
	}
	return trades, nil
}
