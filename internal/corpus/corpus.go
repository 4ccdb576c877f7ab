package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Word is a training word with a repeat weight.
type Word struct {
	Text   string
	Weight int
}

// Load reads a text file and returns its normalized contents.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read corpus: %w", err)
	}
	text := Normalize(string(data))
	if text == "" {
		return "", fmt.Errorf("corpus %s has no usable text", path)
	}
	return text, nil
}

// LoadWords reads one word per line from the provided file path. A line may
// carry a weight after the word, separated by whitespace; the default is 1.
func LoadWords(path string) ([]Word, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []Word
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		word := Word{Text: Normalize(fields[0]), Weight: 1}
		if len(fields) > 1 {
			weight, err := strconv.Atoi(fields[1])
			if err != nil || weight < 1 {
				return nil, fmt.Errorf("line %d: invalid weight %q", lineNo, fields[1])
			}
			word.Weight = weight
		}
		if word.Text == "" {
			continue
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// FromWords joins words into one space separated text. Each word appears
// Weight times; the copies are spread over rounds so that neighbouring words
// vary instead of repeating one word in a block.
func FromWords(words []Word) string {
	maxWeight := 0
	for _, w := range words {
		if w.Weight > maxWeight {
			maxWeight = w.Weight
		}
	}
	var b strings.Builder
	for round := 0; round < maxWeight; round++ {
		for _, w := range words {
			if w.Weight <= round || w.Text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(w.Text)
		}
	}
	return b.String()
}
