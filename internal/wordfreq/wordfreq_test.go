package wordfreq

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/verte-zerg/molishai/internal/corpus"
)

func encodeCBPack(t *testing.T, bins ...[]string) []byte {
	t.Helper()
	payload := []interface{}{map[string]interface{}{"format": "cB", "version": 1}}
	for _, bin := range bins {
		payload = append(payload, bin)
	}
	data, err := msgpack.Marshal(payload)
	require.NoError(t, err)
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadEntriesAndWords(t *testing.T) {
	bins := make([][]string, 301)
	bins[0] = []string{"the"}
	bins[100] = []string{"of", "don't", "Go"}
	bins[300] = []string{"harbor", "of", "x"}
	wheelPath := writeTestWheel(t, map[string][]byte{
		"wordfreq/data/large_en.msgpack.gz": encodeCBPack(t, bins...),
		"wordfreq/data/small_en.msgpack.gz": encodeCBPack(t, []string{"small"}),
	})

	entries, err := ReadEntries(wheelPath, "EN")
	require.NoError(t, err)
	require.Len(t, entries, 7)
	assert.Equal(t, "the", entries[0].Word)
	assert.Equal(t, 9.0, entries[0].Zipf)
	assert.Equal(t, "harbor", entries[4].Word)
	assert.Equal(t, 6.0, entries[4].Zipf)

	words, err := Words(entries, corpus.MinLength(2, corpus.InAlphabet), 10)
	require.NoError(t, err)
	assert.Equal(t, []corpus.Word{{Text: "the", Weight: 64}, {Text: "of", Weight: 32}, {Text: "harbor", Weight: 8}}, words)

	limited, err := Words(entries, corpus.InAlphabet, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = Words(entries, corpus.InAlphabet, 0)
	assert.Error(t, err, "zero limit")
}

func TestReadEntriesFallsBackToSmall(t *testing.T) {
	wheelPath := writeTestWheel(t, map[string][]byte{
		"wordfreq/data/small_fr.msgpack.gz": encodeCBPack(t, []string{"le", "la"}),
	})
	entries, err := ReadEntries(wheelPath, "fr")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = ReadEntries(wheelPath, "de")
	assert.Error(t, err, "missing language")
}

func TestDecodeCBPackRejectsFormat(t *testing.T) {
	data, err := msgpack.Marshal([]interface{}{map[string]interface{}{"format": "other", "version": 1}, []string{"a"}})
	require.NoError(t, err)
	_, err = DecodeCBPack(bytes.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestWeight(t *testing.T) {
	cases := map[float64]int{9: 64, 7: 16, 4: 2, 3: 1, 1.5: 1}
	for zipf, want := range cases {
		assert.Equal(t, want, Weight(zipf), "Weight(%v)", zipf)
	}
}

func TestLanguages(t *testing.T) {
	wheelPath := writeTestWheel(t, map[string][]byte{
		"wordfreq/data/large_en.msgpack.gz":         []byte("x"),
		"wordfreq/data/large_pt-br.msgpack.gz":      []byte("x"),
		"wordfreq/data/small_zh-cn.msgpack.gz":      []byte("x"),
		"wordfreq/data/_chinese_mapping.msgpack.gz": []byte("x"),
		"wordfreq/data/jieba_zh.txt":                []byte("x"),
	})

	langs, err := Languages(wheelPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "pt-br", "zh-cn"}, langs)
}

func TestDownloadLatestWheel(t *testing.T) {
	wheelBody := []byte("wheel-bytes")
	var requests atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/pypi":
			fmt.Fprintf(w, `{"info": {"version": "3.1.1"}, "urls": [
				{"url": "%[1]s/sdist", "filename": "wordfreq-3.1.1.tar.gz", "packagetype": "sdist"},
				{"url": "%[1]s/wheel", "filename": "wordfreq-3.1.1-py3-none-any.whl", "packagetype": "bdist_wheel"}
			]}`, srv.URL)
		case "/wheel":
			_, _ = w.Write(wheelBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	old := pypiEndpoint
	pypiEndpoint = srv.URL + "/pypi"
	defer func() { pypiEndpoint = old }()

	cacheDir := filepath.Join(t.TempDir(), "cache")
	wheel, err := DownloadLatestWheel(context.Background(), cacheDir)
	require.NoError(t, err)
	assert.False(t, wheel.Cached)
	assert.Equal(t, "3.1.1", wheel.Version)
	data, err := os.ReadFile(wheel.Path)
	require.NoError(t, err)
	assert.Equal(t, wheelBody, data)

	again, err := DownloadLatestWheel(context.Background(), cacheDir)
	require.NoError(t, err)
	assert.True(t, again.Cached, "second call uses the cache")
	assert.Equal(t, int32(3), requests.Load())
}

func TestWriteAttribution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ATTRIBUTION.txt")
	require.NoError(t, WriteAttribution(path, Wheel{Version: "3.1.1"}, "en"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"en" frequency list of wordfreq 3.1.1`)
}

func writeTestWheel(t *testing.T, files map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err, name)
		_, err = w.Write(data)
		require.NoError(t, err, name)
	}
	require.NoError(t, zw.Close())
	path := filepath.Join(t.TempDir(), "wordfreq-test-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestWheelFilePrefersPurePython(t *testing.T) {
	var rel release
	body := `{"urls": [
		{"url": "a", "filename": "wordfreq-3.1.1.tar.gz", "packagetype": "sdist"},
		{"url": "b", "filename": "wordfreq-3.1.1-cp312-linux.whl", "packagetype": "bdist_wheel"},
		{"url": "c", "filename": "wordfreq-3.1.1-py3-none-any.whl", "packagetype": "bdist_wheel"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(body), &rel))
	url, name, ok := rel.wheelFile()
	require.True(t, ok)
	assert.Equal(t, "c", url)
	assert.Equal(t, "wordfreq-3.1.1-py3-none-any.whl", name)

	rel.URLs = rel.URLs[:2]
	url, _, _ = rel.wheelFile()
	assert.Equal(t, "b", url, "falls back to any wheel")

	rel.URLs = rel.URLs[:1]
	_, _, ok = rel.wheelFile()
	assert.False(t, ok)
}
