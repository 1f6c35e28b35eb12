//go:build !integration

package partner

import (
	"context"
	"testing"

	"agriMandi/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPartners struct {
	byID map[uuid.UUID]domain.TradingPartner
}

func (m *memPartners) Create(_ context.Context, p *domain.TradingPartner) error {
	if m.byID == nil {
		m.byID = make(map[uuid.UUID]domain.TradingPartner)
	}
	m.byID[p.ID] = *p
	return nil
}

func (m *memPartners) FindByID(_ context.Context, id uuid.UUID) (domain.TradingPartner, error) {
	return m.byID[id], nil
}

func validPartner() *domain.TradingPartner {
	return &domain.TradingPartner{
		Name:         "Wardha Cotton Co",
		Role:         domain.RoleSeller,
		FiscalID:     "27AAACW1234A1Z5",
		Capabilities: []string{domain.CapDomesticSell},
	}
}

func TestRegister(t *testing.T) {
	svc := NewPartnerService(&memPartners{})

	created, err := svc.Register(context.Background(), validPartner())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.GetPartner(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := NewPartnerService(&memPartners{})
	ctx := context.Background()

	p := validPartner()
	p.Role = "BROKER"
	_, err := svc.Register(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidPartner)

	p = validPartner()
	p.FiscalID = ""
	p.RegistrationNo = ""
	_, err = svc.Register(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidPartner)

	p = validPartner()
	p.Capabilities = []string{"teleport"}
	_, err = svc.Register(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidPartner)

	p = validPartner()
	p.ReputationRating = 5.5
	_, err = svc.Register(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidPartner)
}

func TestRegisterAcceptsRegistrationNoAlone(t *testing.T) {
	svc := NewPartnerService(&memPartners{})

	p := validPartner()
	p.FiscalID = ""
	p.RegistrationNo = "U01100MH2020PTC123456"

	_, err := svc.Register(context.Background(), p)
	assert.NoError(t, err)
}
