// Package wordfreq turns the wordfreq dataset into weighted training words.
package wordfreq

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/verte-zerg/molishai/internal/corpus"
)

var pypiEndpoint = "https://pypi.org/pypi/wordfreq/json"

const fetchTimeout = time.Minute

// Wheel describes a cached wordfreq wheel.
type Wheel struct {
	Version  string
	Path     string
	Filename string
	Cached   bool
}

// Entry is a word with its Zipf frequency: log10 of occurrences per billion
// words.
type Entry struct {
	Word string
	Zipf float64
}

type release struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []struct {
		URL         string `json:"url"`
		Filename    string `json:"filename"`
		Packagetype string `json:"packagetype"`
	} `json:"urls"`
}

// wheelFile returns the download URL and file name of the best wheel in the
// release: the pure python one if present, else the first wheel.
func (r release) wheelFile() (url, name string, ok bool) {
	best := -1
	for i, u := range r.URLs {
		if u.Packagetype != "bdist_wheel" {
			continue
		}
		if strings.HasSuffix(u.Filename, "py3-none-any.whl") {
			best = i
			break
		}
		if best < 0 {
			best = i
		}
	}
	if best < 0 {
		return "", "", false
	}
	return r.URLs[best].URL, r.URLs[best].Filename, true
}

// DownloadLatestWheel fetches the latest wordfreq wheel into cacheDir. A
// wheel already in the cache is reused.
func DownloadLatestWheel(ctx context.Context, cacheDir string) (Wheel, error) {
	if cacheDir == "" {
		return Wheel{}, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Wheel{}, fmt.Errorf("create cache dir: %w", err)
	}
	c := &http.Client{Timeout: fetchTimeout}

	var rel release
	err := fetch(ctx, c, pypiEndpoint, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(&rel)
	})
	if err != nil {
		return Wheel{}, fmt.Errorf("pypi metadata: %w", err)
	}
	if rel.Info.Version == "" {
		return Wheel{}, errors.New("pypi metadata has no version")
	}
	url, name, ok := rel.wheelFile()
	if !ok {
		return Wheel{}, fmt.Errorf("wordfreq %s has no wheel", rel.Info.Version)
	}

	w := Wheel{Version: rel.Info.Version, Path: filepath.Join(cacheDir, name), Filename: name}
	switch _, err := os.Stat(w.Path); {
	case err == nil:
		w.Cached = true
		return w, nil
	case !errors.Is(err, fs.ErrNotExist):
		return Wheel{}, fmt.Errorf("stat cached wheel: %w", err)
	}
	if err := fetch(ctx, c, url, func(body io.Reader) error { return writeAtomic(w.Path, body) }); err != nil {
		return Wheel{}, fmt.Errorf("download %s: %w", name, err)
	}
	return w, nil
}

// fetch GETs url and hands the body of a 200 response to read.
func fetch(ctx context.Context, c *http.Client, url string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return read(resp.Body)
}

// writeAtomic streams r into a temp file beside dest and renames it into
// place, so an interrupted download never leaves a partial wheel.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".wordfreq-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// dataFiles lists the frequency lists in a wheel by language. Each language
// maps to its large list when the wheel has one.
func dataFiles(zr *zip.Reader) map[string]*zip.File {
	out := make(map[string]*zip.File)
	for _, f := range zr.File {
		lang, size := parseDataFile(f.Name)
		if lang == "" {
			continue
		}
		if _, ok := out[lang]; !ok || size == "large" {
			out[lang] = f
		}
	}
	return out
}

// Languages returns the sorted language codes that have a frequency list in
// the wheel.
func Languages(wheelPath string) ([]string, error) {
	zr, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("open wheel: %w", err)
	}
	defer zr.Close()

	langs := slices.Sorted(maps.Keys(dataFiles(&zr.Reader)))
	if len(langs) == 0 {
		return nil, errors.New("no languages found in wordfreq wheel")
	}
	return langs, nil
}

// parseDataFile splits names like wordfreq/data/large_en.msgpack.gz into
// language and list size.
func parseDataFile(name string) (lang, size string) {
	base, ok := strings.CutPrefix(strings.ToLower(name), "wordfreq/data/")
	if !ok {
		return "", ""
	}
	if base, ok = strings.CutSuffix(base, ".msgpack.gz"); !ok {
		return "", ""
	}
	size, lang, ok = strings.Cut(base, "_")
	if !ok || lang == "" || (size != "large" && size != "small") {
		return "", ""
	}
	return lang, size
}

// ReadEntries decodes the frequency list for lang, preferring the large list.
func ReadEntries(wheelPath, lang string) ([]Entry, error) {
	zr, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("open wheel: %w", err)
	}
	defer zr.Close()

	f, ok := dataFiles(&zr.Reader)[strings.ToLower(lang)]
	if !ok {
		return nil, fmt.Errorf("no frequency list for language %q", lang)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	defer rc.Close()
	gz, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	defer gz.Close()
	entries, err := DecodeCBPack(gz)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return entries, nil
}

// DecodeCBPack reads wordfreq's cBpack layout: a header map followed by one
// array of words per centibel bin. Bin i holds words with frequency
// 10^(-i/100).
func DecodeCBPack(r io.Reader) ([]Entry, error) {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("failed to decode cBpack: %w", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("cBpack has no header")
	}
	header, err := dec.DecodeMap()
	if err != nil {
		return nil, fmt.Errorf("failed to decode cBpack header: %w", err)
	}
	if format := fmt.Sprint(header["format"]); format != "cB" {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if version := fmt.Sprint(header["version"]); version != "1" {
		return nil, fmt.Errorf("unsupported cBpack version %s", version)
	}

	var entries []Entry
	for bin := 0; bin < n-1; bin++ {
		size, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, fmt.Errorf("bin %d: %w", bin, err)
		}
		zipf := 9 - float64(bin)/100
		for i := 0; i < size; i++ {
			word, err := dec.DecodeString()
			if err != nil {
				return nil, fmt.Errorf("bin %d: %w", bin, err)
			}
			entries = append(entries, Entry{Word: word, Zipf: zipf})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("wordfreq data contained no entries")
	}
	return entries, nil
}

// Weight maps a Zipf score to a repeat count. Each Zipf step doubles the
// count; words at Zipf 3 or rarer appear once.
func Weight(zipf float64) int {
	w := int(math.Round(math.Pow(2, zipf-3)))
	if w < 1 {
		return 1
	}
	return w
}

// Words keeps the most frequent entries that pass keep, up to limit, and
// weights them by frequency. Entries must be sorted by descending Zipf as
// DecodeCBPack returns them.
func Words(entries []Entry, keep corpus.FilterFunc, limit int) ([]corpus.Word, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	words := make([]corpus.Word, 0, limit)
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if _, ok := seen[entry.Word]; ok || !keep(entry.Word) {
			continue
		}
		seen[entry.Word] = struct{}{}
		words = append(words, corpus.Word{Text: entry.Word, Weight: Weight(entry.Zipf)})
		if len(words) >= limit {
			break
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in frequency list")
	}
	return words, nil
}

// WriteAttribution records the data source next to a model trained from it.
func WriteAttribution(path string, wheel Wheel, lang string) error {
	text := strings.Join([]string{
		fmt.Sprintf("Model trained on the %q frequency list of wordfreq %s.", lang, wheel.Version),
		"Source: https://github.com/rspeer/wordfreq",
		"Data license: Creative Commons Attribution-ShareAlike 4.0 International (CC BY-SA 4.0).",
		"https://creativecommons.org/licenses/by-sa/4.0/",
		"Changes were made: filtered to words of letters a-z and weighted by frequency.",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write attribution: %w", err)
	}
	return nil
}
