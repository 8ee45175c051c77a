package dealer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dealershipai/visibility-engine/pkg/errors"
)

func validDealer() *Dealer {
	return &Dealer{
		ID:            "d-0042",
		Name:          "Lone Star Toyota",
		Aliases:       []string{"Lone Star", "LST Dallas"},
		Domain:        "lonestartoyota.com",
		City:          "Dallas",
		State:         "TX",
		EstablishedAt: time.Date(1998, 3, 1, 0, 0, 0, 0, time.UTC),
		Brand:         "Toyota",
		WebsiteURL:    "https://lonestartoyota.com",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Dealer)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Dealer) {}},
		{name: "missing id", mutate: func(d *Dealer) { d.ID = "" }, wantErr: true},
		{name: "blank name", mutate: func(d *Dealer) { d.Name = "   " }, wantErr: true},
		{name: "missing domain", mutate: func(d *Dealer) { d.Domain = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDealer()
			tt.mutate(d)
			err := d.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDealerInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	var nilDealer *Dealer
	assert.Error(t, nilDealer.Validate())
}

func TestMentionedIn(t *testing.T) {
	d := validDealer()

	assert.True(t, d.MentionedIn("I'd recommend Lone Star Toyota on I-35."))
	assert.True(t, d.MentionedIn("lone star toyota has great reviews"))
	assert.True(t, d.MentionedIn("Try LST Dallas for trade-ins."), "alias match")
	assert.False(t, d.MentionedIn("AutoNation is the largest dealer group."))
	assert.False(t, d.MentionedIn(""))

	var nilDealer *Dealer
	assert.False(t, nilDealer.MentionedIn("anything"))
}

func TestMentionedInIgnoresEmptyAlias(t *testing.T) {
	d := validDealer()
	d.Aliases = []string{""}
	assert.False(t, d.MentionedIn("some unrelated answer text"))
}

func TestTenureYears(t *testing.T) {
	d := validDealer()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 28.0, d.TenureYears(now), 0.05)

	d.EstablishedAt = time.Time{}
	assert.Zero(t, d.TenureYears(now))

	d.EstablishedAt = now.Add(24 * time.Hour)
	assert.Zero(t, d.TenureYears(now), "future date yields zero tenure")
}

func TestMarket(t *testing.T) {
	d := validDealer()
	assert.Equal(t, "Dallas, TX", d.Market())

	d.State = ""
	assert.Equal(t, "Dallas", d.Market())

	d.City = ""
	assert.Equal(t, "", d.Market())
}

func TestQueryPanel(t *testing.T) {
	dallas := QueryPanel("Dallas, TX")
	require.NotEmpty(t, dallas)
	assert.Contains(t, dallas[0], "Dallas")

	fallback := QueryPanel("Nowhere, ZZ")
	assert.Equal(t, QueryPanel(""), fallback, "unknown markets share the default panel")

	// Returned slices are copies.
	dallas[0] = "mutated"
	assert.NotEqual(t, "mutated", QueryPanel("Dallas, TX")[0])
}

func TestPanelSize(t *testing.T) {
	assert.Equal(t, len(QueryPanel("Dallas, TX")), PanelSize("Dallas, TX"))
	assert.Equal(t, len(QueryPanel("Nowhere, ZZ")), PanelSize("Nowhere, ZZ"))
}
