// Package transform encodes the per-type business rules that turn one raw
// activity record into a canonical transaction, or a definitive rejection.
package transform

import (
	"context"

	"go.uber.org/zap"

	"github.com/omniwallet/walletsync/pkg/chains"
	"github.com/omniwallet/walletsync/pkg/model"
	"github.com/omniwallet/walletsync/pkg/money"
	"github.com/omniwallet/walletsync/pkg/payload"
)

// IdentityResolver maps operational-store identifiers to display usernames.
// Implementations fall back to the raw identifier when resolution fails;
// resolution is never a reason to drop a row.
type IdentityResolver interface {
	UsernameByUserID(ctx context.Context, userID string) string
	UsernameByAddress(ctx context.Context, address string) string
}

// Transformer holds the per-run collaborators of the transform step.
type Transformer struct {
	logger   *zap.Logger
	identity IdentityResolver
}

func New(logger *zap.Logger, identity IdentityResolver) *Transformer {
	return &Transformer{logger: logger, identity: identity}
}

// Transform produces the canonical transaction for one raw activity record.
// A RejectError means the row is excluded from the cache by business rule;
// any other behavior is defaults-on-failure, never an abort.
func (t *Transformer) Transform(ctx context.Context, rec *model.RawActivityRecord) (*model.CanonicalTransaction, error) {
	p := payload.Parse(rec.Payload)
	fromID, toID := payload.ResolveChainIDs(rec.ChainIDs, p)

	tx := &model.CanonicalTransaction{
		CreatedAt: rec.CreatedAt,
		Type:      rec.Type,
		Status:    rec.Status,
		FromUser:  t.identity.UsernameByUserID(ctx, rec.UserID),
		FromChain: chainName(fromID),
		ToChain:   chainName(toID),
		ChainID:   fromID,
	}

	switch rec.Type {
	case model.TypeSend:
		t.applySend(ctx, p, tx)
	case model.TypeSwap, model.TypeBridge:
		t.applySwap(p, tx)
	case model.TypeDapp:
		display := DappDisplay(p)
		tx.TxDisplay = &display
		tx.ToUser = strPtr(tx.FromUser)
	case model.TypeCash:
		if err := t.applyCash(ctx, p, tx); err != nil {
			return nil, err
		}
	default:
		return nil, reject("unsupported activity type %q", rec.Type)
	}

	// A USD value past the representable bound is corrupt evidence, not a
	// big transaction; the row is excluded rather than written distorted.
	if tx.AmountUSD > money.MaxUSD {
		return nil, reject("amount %.2f exceeds representable bound", tx.AmountUSD)
	}

	hash, synthesized := ResolveHash(rec.Hash, rec.CreatedAt, p)
	tx.TxHash = hash

	// An unverifiable swap must never be counted as a completed swap: with
	// no on-chain hash to confirm it, the record is treated as failed even
	// when the source claims success.
	if synthesized && (rec.Type == model.TypeSwap || rec.Type == model.TypeBridge) {
		tx.Status = model.StatusFail
	}

	return tx, nil
}

func (t *Transformer) applySend(ctx context.Context, p payload.Payload, tx *model.CanonicalTransaction) {
	tok := p.SendToken()
	tx.FromToken, tx.ToToken = tok.Symbol, tok.Symbol

	price := tok.Price
	if price == nil {
		price = "1"
	}
	tx.AmountUSD = money.Normalize(p.Amount(), price, tok.Decimals)

	to := tx.FromUser
	if username, address := p.SendRecipient(); username != "" {
		to = username
	} else if address != "" {
		to = t.identity.UsernameByAddress(ctx, address)
	}
	tx.ToUser = &to
}

func (t *Transformer) applySwap(p payload.Payload, tx *model.CanonicalTransaction) {
	from, to := p.FromToken(), p.ToToken()
	tx.FromToken, tx.ToToken = from.Symbol, to.Symbol
	tx.AmountUSD = money.Normalize(p.FromAmount(), from.Price, from.Decimals)
	tx.FeeUSD = swapFeeUSD(p)

	// A swap's counterparty is the protocol, not another user.
	tx.ToUser = strPtr(tx.FromUser)
}

func (t *Transformer) applyCash(ctx context.Context, p payload.Payload, tx *model.CanonicalTransaction) error {
	v := p.Cash()

	var to string
	switch v.SubStatus {
	case "SEND", "RECEIVE":
		if v.FromUserID != "" {
			tx.FromUser = t.identity.UsernameByUserID(ctx, v.FromUserID)
		}
		switch {
		case v.ToUserID != "":
			to = t.identity.UsernameByUserID(ctx, v.ToUserID)
		case v.ToUsername != "":
			to = v.ToUsername
		case v.ToExternalUser != "":
			to = v.ToExternalUser
		default:
			to = "N/A"
		}
	case "CONVERT":
		switch v.ConvertType {
		case "CASH_TO_CRYPTO":
			to = "CONVERT: CASH TO CRYPTO"
		case "CRYPTO_TO_CASH":
			to = "CONVERT: CRYPTO TO CASH"
		default:
			to = "CONVERT"
		}
	case "DEPOSIT", "WITHDRAW":
		// Pure balance movements belong to the balance stats source, not
		// the transaction cache.
		return reject("cash balance movement %s", v.SubStatus)
	default:
		return reject("cash sub-status %q is not an outbound movement", v.SubStatus)
	}
	tx.ToUser = &to

	// Cash amounts arrive already USD-denominated.
	tx.AmountUSD = money.SafeFloat(v.Amount)
	tx.FeeUSD = money.SafeFloat(v.Fee)

	symbol := "USD"
	if v.Token.Symbol != nil {
		symbol = *v.Token.Symbol
	}
	tx.FromToken, tx.ToToken = &symbol, &symbol

	return nil
}

func chainName(id *int64) string {
	if id == nil {
		return "unknown"
	}
	return chains.Name(*id)
}

func strPtr(s string) *string {
	return &s
}
