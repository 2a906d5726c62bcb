package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
  "categories": [{"id": "c1", "name": "Garden", "banner_id": null}],
  "products": [{"id": "p1", "name": "Can", "price": "9.99", "amount": 2, "category_id": "c1", "images": ["a.jpg"]}]
}`

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeFixture(t *testing.T) {
	for name, raw := range map[string][]byte{
		"plain": []byte(sample),
		"gzip":  gzipped(t, sample),
	} {
		t.Run(name, func(t *testing.T) {
			f, err := decodeFixture(bytes.NewReader(raw))
			require.NoError(t, err)
			require.Len(t, f.Products, 1)
			assert.Equal(t, "9.99", f.Products[0].Price.StringFixed(2))
			assert.Equal(t, []string{"a.jpg"}, f.Products[0].Images)
			require.Len(t, f.Categories, 1)
			assert.Nil(t, f.Categories[0].BannerID)
		})
	}
}

func TestDecodeFixture_RejectsUnknownFields(t *testing.T) {
	_, err := decodeFixture(strings.NewReader(`{"coupons": []}`))
	assert.Error(t, err)
}

func TestLoadFixtures_MergesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json.gz")
	require.NoError(t, os.WriteFile(first, []byte(sample), 0o600))
	require.NoError(t, os.WriteFile(second, gzipped(t, `{"products": [{"id": "p2", "name": "Pan", "price": "5", "category_id": "c1"}]}`), 0o600))

	f, err := loadFixtures(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, f.Products, 2)
	assert.Equal(t, "p1", f.Products[0].ID)
	assert.Equal(t, "p2", f.Products[1].ID)

	_, err = loadFixtures(context.Background(), []string{first, filepath.Join(dir, "missing.json")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loadFixtures(ctx, []string{first, second})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadFixtureFile_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := ctxReader{ctx: ctx, r: strings.NewReader(sample)}

	buf := make([]byte, 4)
	_, err := r.Read(buf)
	require.NoError(t, err)

	cancel()
	_, err = r.Read(buf)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSeedFixtureParses(t *testing.T) {
	f, err := loadFixtures(context.Background(), []string{filepath.Join("..", "..", "db", "seed", "catalog.json")})
	require.NoError(t, err)
	assert.NotEmpty(t, f.Products)
	assert.NotEmpty(t, f.Users)
	require.NotEmpty(t, f.Discounts)
	assert.True(t, f.Discounts[0].Active)
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := parseWhen("+30d", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), got)

	got, err = parseWhen("-1d", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -1), got)

	got, err = parseWhen("2025-04-01T00:00:00+02:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 22, 0, 0, 0, time.UTC), got)

	_, err = parseWhen("soon", now)
	assert.Error(t, err)
	_, err = parseWhen("+xd", now)
	assert.Error(t, err)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.json", "b.json.gz"}, splitPaths(" a.json, ,b.json.gz "))
	assert.Nil(t, splitPaths(""))
}
