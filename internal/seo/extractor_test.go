package seo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

func TestExtract_FullPage(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><head>
		<title> Example Store </title>
		<meta name="description" content="a shop">
	</head><body>
		<h1>Welcome</h1>
		<img src="a.png" alt="product photo">
		<img src="b.png" alt="">
		<img src="c.png">
	</body></html>`)

	got, err := Extract("https://example.com", html)
	require.NoError(t, err)
	require.Equal(t, analyzer.SeoResult{
		URL:              "https://example.com",
		Title:            "Example Store",
		MetaDescription:  analyzer.MetaPresent,
		H1Count:          1,
		ImagesWithoutAlt: 2,
		TotalImages:      3,
	}, got)
}

func TestExtract_MissingEverything(t *testing.T) {
	t.Parallel()

	got, err := Extract("https://bare.example", []byte(`<html><body><p>hello</p></body></html>`))
	require.NoError(t, err)
	require.Equal(t, analyzer.TitleMissing, got.Title)
	require.Equal(t, analyzer.MetaMissing, got.MetaDescription)
	require.Zero(t, got.H1Count)
	require.Zero(t, got.TotalImages)
	require.Zero(t, got.ImagesWithoutAlt)
}

func TestExtract_MetaPresenceIgnoresContent(t *testing.T) {
	t.Parallel()

	got, err := Extract("u", []byte(`<head><meta name="description" content=""></head>`))
	require.NoError(t, err)
	require.Equal(t, analyzer.MetaPresent, got.MetaDescription)
}

func TestExtract_EndToEndScenario(t *testing.T) {
	t.Parallel()

	// No title, no meta description, two H1s, three images with one missing alt.
	html := []byte(`<html><body>
		<h1>First</h1><h1>Second</h1>
		<img src="1.png" alt="one">
		<img src="2.png" alt="two">
		<img src="3.png">
	</body></html>`)

	got, err := Extract("https://example.org", html)
	require.NoError(t, err)
	require.Equal(t, analyzer.TitleMissing, got.Title)
	require.Equal(t, analyzer.MetaMissing, got.MetaDescription)
	require.Equal(t, 2, got.H1Count)
	require.Equal(t, 3, got.TotalImages)
	require.Equal(t, 1, got.ImagesWithoutAlt)
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><head><title>t</title></head><body><h1>h</h1><img src="x"></body></html>`)
	first, err := Extract("u", html)
	require.NoError(t, err)
	second, err := Extract("u", html)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExtract_MalformedMarkupBestEffort(t *testing.T) {
	t.Parallel()

	got, err := Extract("u", []byte(`<html><title>ok<body><h1>a<img src="x"`))
	require.NoError(t, err)
	require.Equal(t, "ok", got.Title)
	require.Equal(t, 1, got.H1Count)
	require.Equal(t, 1, got.TotalImages)
	require.LessOrEqual(t, got.ImagesWithoutAlt, got.TotalImages)
}
