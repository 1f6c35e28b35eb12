package risk

import (
	"context"
	"fmt"

	"agriMandi/domain"
)

// hardBlocks runs the compliance checks that exclude a candidate regardless
// of its numeric score. Shared contact channels come back as WARN factors,
// not blocks.
func (s *RiskService) hardBlocks(ctx context.Context, buyer, seller domain.TradingPartner, commodityID string) ([]domain.HardBlock, []domain.RiskFactor, error) {
	var blocks []domain.HardBlock

	blocks = append(blocks, partyLinkBlocks(buyer, seller)...)
	blocks = append(blocks, roleBlocks(buyer, seller)...)

	circular, err := s.circularTradingBlock(ctx, buyer, seller, commodityID)
	if err != nil {
		return nil, nil, fmt.Errorf("circular trading check: %w", err)
	}
	blocks = append(blocks, circular...)

	return blocks, sharedContactWarns(buyer, seller), nil
}

// partyLinkBlocks catches related parties: shared fiscal identifier or
// business registration number blocks the pair outright.
func partyLinkBlocks(buyer, seller domain.TradingPartner) []domain.HardBlock {
	var blocks []domain.HardBlock

	if buyer.FiscalID != "" && buyer.FiscalID == seller.FiscalID {
		blocks = append(blocks, domain.HardBlock{
			Rule:         domain.BlockRulePartyLink,
			MatchedField: "fiscal_id",
			Detail:       "buyer and seller share the same fiscal identifier",
		})
	}

	if buyer.RegistrationNo != "" && buyer.RegistrationNo == seller.RegistrationNo {
		blocks = append(blocks, domain.HardBlock{
			Rule:         domain.BlockRulePartyLink,
			MatchedField: "registration_no",
			Detail:       "buyer and seller share the same business registration number",
		})
	}

	return blocks
}

func sharedContactWarns(buyer, seller domain.TradingPartner) []domain.RiskFactor {
	var warns []domain.RiskFactor

	if buyer.Phone != "" && buyer.Phone == seller.Phone {
		warns = append(warns, domain.RiskFactor{Code: "shared_contact_phone"})
	}
	if buyer.Email != "" && buyer.Email == seller.Email {
		warns = append(warns, domain.RiskFactor{Code: "shared_contact_email"})
	}

	return warns
}

// circularTradingBlock prevents a same-day buy-then-sell (or sell-then-buy)
// reversal between the same two parties in the same commodity.
func (s *RiskService) circularTradingBlock(ctx context.Context, buyer, seller domain.TradingPartner, commodityID string) ([]domain.HardBlock, error) {
	if s.positions == nil {
		return nil, nil
	}

	day := today()

	// Seller already bought this commodity from the buyer today.
	reversed, err := s.positions.HasOpenPosition(ctx, seller.ID, buyer.ID, commodityID, domain.PositionBuy, day)
	if err != nil {
		return nil, err
	}
	if !reversed {
		// Buyer already sold this commodity to the seller today.
		reversed, err = s.positions.HasOpenPosition(ctx, buyer.ID, seller.ID, commodityID, domain.PositionSell, day)
		if err != nil {
			return nil, err
		}
	}

	if reversed {
		return []domain.HardBlock{{
			Rule:         domain.BlockRuleCircularTrading,
			MatchedField: "trade_positions",
			Detail:       "same-day opposite-direction position between the same parties",
		}}, nil
	}

	return nil, nil
}

// roleBlocks enforces transaction-direction permissions and jurisdiction
// capabilities.
func roleBlocks(buyer, seller domain.TradingPartner) []domain.HardBlock {
	var blocks []domain.HardBlock

	if !buyer.Role.CanBuy() {
		blocks = append(blocks, domain.HardBlock{
			Rule:         domain.BlockRuleRoleRestriction,
			MatchedField: "role",
			Detail:       fmt.Sprintf("role %s is not permitted to buy", buyer.Role),
		})
	}
	if !seller.Role.CanSell() {
		blocks = append(blocks, domain.HardBlock{
			Rule:         domain.BlockRuleRoleRestriction,
			MatchedField: "role",
			Detail:       fmt.Sprintf("role %s is not permitted to sell", seller.Role),
		})
	}

	crossBorder := buyer.CountryCode != "" && seller.CountryCode != "" &&
		buyer.CountryCode != seller.CountryCode

	if crossBorder {
		if !buyer.HasCapability(domain.CapImport) {
			blocks = append(blocks, domain.HardBlock{
				Rule:         domain.BlockRuleRoleRestriction,
				MatchedField: "capabilities",
				Detail:       "buyer lacks import capability for a cross-border trade",
			})
		}
		if !seller.HasCapability(domain.CapExport) {
			blocks = append(blocks, domain.HardBlock{
				Rule:         domain.BlockRuleRoleRestriction,
				MatchedField: "capabilities",
				Detail:       "seller lacks export capability for a cross-border trade",
			})
		}
	} else {
		if !buyer.HasCapability(domain.CapDomesticBuy) {
			blocks = append(blocks, domain.HardBlock{
				Rule:         domain.BlockRuleRoleRestriction,
				MatchedField: "capabilities",
				Detail:       "buyer lacks domestic buy capability",
			})
		}
		if !seller.HasCapability(domain.CapDomesticSell) {
			blocks = append(blocks, domain.HardBlock{
				Rule:         domain.BlockRuleRoleRestriction,
				MatchedField: "capabilities",
				Detail:       "seller lacks domestic sell capability",
			})
		}
	}

	return blocks
}
