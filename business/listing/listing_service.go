package listing

import (
	"context"
	"fmt"

	"agriMandi/domain"
	"agriMandi/pkg/logger"

	"github.com/google/uuid"
)

type RequirementStore interface {
	Create(ctx context.Context, req *domain.Requirement) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Requirement, error)
	FindOpenByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Requirement, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.RequirementStatus) error
}

type AvailabilityStore interface {
	Create(ctx context.Context, av *domain.Availability) error
	FindByID(ctx context.Context, id uuid.UUID) (domain.Availability, error)
	FindOpenBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Availability, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next domain.AvailabilityStatus) error
}

type PartnerStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.TradingPartner, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// ListingService owns the intake lifecycle of requirements and
// availabilities. Publishing a listing is what puts it in front of the
// matcher: the publish step emits the event the orchestrator consumes.
type ListingService struct {
	requirements   RequirementStore
	availabilities AvailabilityStore
	partners       PartnerStore
	bus            EventPublisher
}

func NewListingService(
	requirements RequirementStore,
	availabilities AvailabilityStore,
	partners PartnerStore,
	bus EventPublisher,
) *ListingService {
	return &ListingService{
		requirements:   requirements,
		availabilities: availabilities,
		partners:       partners,
		bus:            bus,
	}
}

func (s *ListingService) CreateRequirement(ctx context.Context, req *domain.Requirement) (*domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validateRequirement(req); err != nil {
		return nil, err
	}

	buyer, err := s.partners.FindByID(ctx, req.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer: %w", err)
	}
	if !buyer.Role.CanBuy() {
		return nil, ValidationError{Field: "buyer_id", Reason: fmt.Sprintf("role %s cannot post requirements", buyer.Role)}
	}

	req.ID = uuid.New()
	req.Status = domain.RequirementCreated

	if err := s.requirements.Create(ctx, req); err != nil {
		return nil, err
	}

	logger.Info("Requirement created", "requirement_id", req.ID, "commodity_id", req.CommodityID, "intent", req.Intent)
	return req, nil
}

// PublishRequirement flips CREATED to PUBLISHED and hands the requirement to
// the matcher via the event bus.
func (s *ListingService) PublishRequirement(ctx context.Context, id uuid.UUID) (domain.Requirement, error) {
	if err := ctx.Err(); err != nil {
		return domain.Requirement{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.requirements.UpdateStatus(ctx, id, domain.RequirementPublished); err != nil {
		return domain.Requirement{}, err
	}

	req, err := s.requirements.FindByID(ctx, id)
	if err != nil {
		return domain.Requirement{}, err
	}

	s.bus.Publish(ctx, domain.TopicRequirementCreated, domain.RequirementCreatedEvent{
		RequirementID: req.ID,
		CommodityID:   req.CommodityID,
		Intent:        req.Intent,
	})

	return req, nil
}

func (s *ListingService) GetRequirement(ctx context.Context, id uuid.UUID) (domain.Requirement, error) {
	return s.requirements.FindByID(ctx, id)
}

func (s *ListingService) GetBuyerRequirements(ctx context.Context, buyerID uuid.UUID) ([]domain.Requirement, error) {
	return s.requirements.FindOpenByBuyer(ctx, buyerID)
}

func (s *ListingService) CreateAvailability(ctx context.Context, av *domain.Availability) (*domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validateAvailability(av); err != nil {
		return nil, err
	}

	seller, err := s.partners.FindByID(ctx, av.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}
	if !seller.Role.CanSell() {
		return nil, ValidationError{Field: "seller_id", Reason: fmt.Sprintf("role %s cannot post availabilities", seller.Role)}
	}

	av.ID = uuid.New()
	av.Status = domain.AvailabilityDraft
	av.Version = 0

	if err := s.availabilities.Create(ctx, av); err != nil {
		return nil, err
	}

	logger.Info("Availability created", "availability_id", av.ID, "commodity_id", av.CommodityID)
	return av, nil
}

// PublishAvailability flips DRAFT to ACTIVE and hands the availability to the
// matcher via the event bus.
func (s *ListingService) PublishAvailability(ctx context.Context, id uuid.UUID) (domain.Availability, error) {
	if err := ctx.Err(); err != nil {
		return domain.Availability{}, fmt.Errorf("context error: %w", err)
	}

	if err := s.availabilities.UpdateStatus(ctx, id, domain.AvailabilityActive); err != nil {
		return domain.Availability{}, err
	}

	av, err := s.availabilities.FindByID(ctx, id)
	if err != nil {
		return domain.Availability{}, err
	}

	s.bus.Publish(ctx, domain.TopicAvailabilityCreated, domain.AvailabilityCreatedEvent{
		AvailabilityID: av.ID,
		CommodityID:    av.CommodityID,
	})

	return av, nil
}

func (s *ListingService) GetAvailability(ctx context.Context, id uuid.UUID) (domain.Availability, error) {
	return s.availabilities.FindByID(ctx, id)
}

func (s *ListingService) GetSellerAvailabilities(ctx context.Context, sellerID uuid.UUID) ([]domain.Availability, error) {
	return s.availabilities.FindOpenBySeller(ctx, sellerID)
}

func validateRequirement(req *domain.Requirement) error {
	if req.BuyerID == uuid.Nil {
		return ValidationError{Field: "buyer_id", Reason: "required"}
	}
	if req.CommodityID == "" {
		return ValidationError{Field: "commodity_id", Reason: "required"}
	}
	if !req.QuantityMax.IsPositive() {
		return ValidationError{Field: "quantity_max", Reason: "must be positive"}
	}
	if req.QuantityMin.GreaterThan(req.QuantityMax) {
		return ValidationError{Field: "quantity_min", Reason: "exceeds quantity_max"}
	}
	if !req.QuantityPreferred.IsZero() {
		if req.QuantityPreferred.LessThan(req.QuantityMin) || req.QuantityPreferred.GreaterThan(req.QuantityMax) {
			return ValidationError{Field: "quantity_preferred", Reason: "outside [quantity_min, quantity_max]"}
		}
	}
	if !req.BudgetPerUnitMax.IsPositive() {
		return ValidationError{Field: "budget_per_unit_max", Reason: "must be positive"}
	}
	if len(req.DeliveryLocations) == 0 {
		return ValidationError{Field: "delivery_locations", Reason: "at least one location required"}
	}
	if !req.DeliveryWindowStart.IsZero() && !req.DeliveryWindowEnd.IsZero() &&
		req.DeliveryWindowEnd.Before(req.DeliveryWindowStart) {
		return ValidationError{Field: "delivery_window", Reason: "end before start"}
	}
	switch req.Intent {
	case domain.IntentDirectBuy, domain.IntentNegotiation, domain.IntentAuction, domain.IntentPriceDiscovery:
	default:
		return ValidationError{Field: "intent", Reason: fmt.Sprintf("unknown intent %q", req.Intent)}
	}
	for name, qc := range req.Quality.Data() {
		if qc.Min != nil && qc.Max != nil && *qc.Min > *qc.Max {
			return ValidationError{Field: "quality." + name, Reason: "min exceeds max"}
		}
	}
	return nil
}

func validateAvailability(av *domain.Availability) error {
	if av.SellerID == uuid.Nil {
		return ValidationError{Field: "seller_id", Reason: "required"}
	}
	if av.CommodityID == "" {
		return ValidationError{Field: "commodity_id", Reason: "required"}
	}
	if !av.QuantityTotal.IsPositive() {
		return ValidationError{Field: "quantity_total", Reason: "must be positive"}
	}
	if !av.PricePerUnit.IsPositive() {
		return ValidationError{Field: "price_per_unit", Reason: "must be positive"}
	}
	if !av.DeliveryWindowStart.IsZero() && !av.DeliveryWindowEnd.IsZero() &&
		av.DeliveryWindowEnd.Before(av.DeliveryWindowStart) {
		return ValidationError{Field: "delivery_window", Reason: "end before start"}
	}
	return nil
}
