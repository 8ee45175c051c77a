package stub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
)

func sampleDealer() *dealer.Dealer {
	return &dealer.Dealer{
		ID:     "d-1",
		Name:   "Lone Star Toyota",
		Domain: "lonestartoyota.com",
		City:   "Dallas",
		State:  "TX",
	}
}

func TestSearchMetricsDeterministic(t *testing.T) {
	src := NewSearchSource()
	d := sampleDealer()

	a, err := src.FetchSearchMetrics(context.Background(), d)
	require.NoError(t, err)
	b, err := src.FetchSearchMetrics(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, a.TrackedKeywords, b.TrackedKeywords)
	assert.Equal(t, a.Impressions, b.Impressions)
	assert.InDelta(t, a.AvgPosition, b.AvgPosition, 1e-9)

	// Derived figures stay within their parents.
	assert.LessOrEqual(t, a.Top10Keywords, a.TrackedKeywords)
	assert.LessOrEqual(t, a.IndexedPages, a.TotalPages)
	assert.LessOrEqual(t, a.LocalPackHits, a.LocalPackQueries)
}

func TestProfileMetricsWithinBounds(t *testing.T) {
	src := NewProfileSource()

	m, err := src.FetchProfileMetrics(context.Background(), sampleDealer())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, m.AvgRating, 3.4)
	assert.LessOrEqual(t, m.AvgRating, 4.9)
	assert.LessOrEqual(t, m.VerifiedReviewCount, m.ReviewCount)
	assert.LessOrEqual(t, m.ResolvedComplaints, m.ComplaintCount)
	assert.LessOrEqual(t, m.StaffBioCount, m.StaffCount)
	assert.True(t, m.SSLValid)
}

func TestBacklinkPositionTracksSearchPosition(t *testing.T) {
	d := sampleDealer()

	search, err := NewSearchSource().FetchSearchMetrics(context.Background(), d)
	require.NoError(t, err)
	links, err := NewBacklinkSource().FetchBacklinkMetrics(context.Background(), d)
	require.NoError(t, err)

	// The two rank samples must stay close enough that the cross-source
	// check passes on synthetic data.
	assert.InDelta(t, search.AvgPosition, links.ObservedAvgPosition, 2.01)
}

func TestChatPlatformCitesRosteredDealers(t *testing.T) {
	roster := []string{"Lone Star Toyota", "Hill Country Honda", "Desert Sun Ford"}
	p := NewChatPlatform("chatgpt", roster)
	d := sampleDealer()

	cited := 0
	for _, q := range dealer.QueryPanel(d.Market()) {
		resp, err := p.Complete(context.Background(), q)
		require.NoError(t, err)
		if d.MentionedIn(resp.Text) {
			cited++
		}
	}
	// Re-running the panel must reproduce the same citations; the spot
	// check depends on it.
	again := 0
	for _, q := range dealer.QueryPanel(d.Market()) {
		resp, err := p.Complete(context.Background(), q)
		require.NoError(t, err)
		if d.MentionedIn(resp.Text) {
			again++
		}
	}
	assert.Equal(t, cited, again)
}

func TestRegistryValidates(t *testing.T) {
	r := NewRegistry([]string{"Lone Star Toyota"})
	require.NoError(t, r.Validate())
	assert.Len(t, r.Platforms(), len(DefaultPlatformNames))
}
