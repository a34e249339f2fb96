package citation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliography/internal/store"
)

func newSettingsStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverPure, filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, SiteSettings{Style: "chicago-fullnote-bibliography"}, DefaultSiteSettings())

	b := DefaultBlockSettings()
	assert.Equal(t, DefaultStyle, b.Style)
	assert.Empty(t, b.Locale)
	assert.False(t, b.AppendSite)
	assert.False(t, b.AppendAccessDate)
	assert.False(t, b.Bibliographic)
}

func TestBlockOptions_InheritFromSite(t *testing.T) {
	site := SiteSettings{Style: "apa", Locale: "fr-FR"}

	opts := BlockSettings{AppendSite: true}.Options(site)
	assert.Equal(t, Options{Style: "apa", Locale: "fr-FR", AppendSite: true}, opts)

	opts = BlockSettings{Style: "ieee", Locale: "en-GB", Bibliographic: true}.Options(site)
	assert.Equal(t, Options{Style: "ieee", Locale: "en-GB", Bibliographic: true}, opts)

	opts = BlockSettings{}.Options(SiteSettings{})
	assert.Equal(t, DefaultStyle, opts.Style)
}

func TestResolveSiteSettings(t *testing.T) {
	ctx := context.Background()
	s := newSettingsStore(t)

	got, err := ResolveSiteSettings(ctx, s, 1, DefaultSiteSettings())
	require.NoError(t, err)
	assert.Equal(t, DefaultSiteSettings(), got, "nothing stored yields defaults")

	require.NoError(t, SaveSiteSettings(ctx, s, 0, SiteSettings{Style: "apa", Locale: "en-US"}))
	got, err = ResolveSiteSettings(ctx, s, 1, DefaultSiteSettings())
	require.NoError(t, err)
	assert.Equal(t, SiteSettings{Style: "apa", Locale: "en-US"}, got, "site falls back to main settings")

	require.NoError(t, SaveSiteSettings(ctx, s, 1, SiteSettings{Style: "ieee"}))
	got, err = ResolveSiteSettings(ctx, s, 1, DefaultSiteSettings())
	require.NoError(t, err)
	assert.Equal(t, SiteSettings{Style: "ieee", Locale: "en-US"}, got, "empty site locale inherits")

	got, err = ResolveSiteSettings(ctx, s, 0, DefaultSiteSettings())
	require.NoError(t, err)
	assert.Equal(t, "apa", got.Style)
}
