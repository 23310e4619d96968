package store

import (
	"bufio"
	"bytes"
	"fmt"
	"iter"
	"os"

	"tali/internal/record"
)

// maxLineBytes bounds one JSONL record; WIT images are inlined as base64.
const maxLineBytes = 64 << 20

// ReadJSONL yields the records of every file in order, as if the shards were
// one concatenated file. Blank lines are skipped.
func ReadJSONL(paths ...string) iter.Seq2[record.Raw, error] {
	return func(yield func(record.Raw, error) bool) {
		for _, path := range paths {
			if !readJSONLFile(path, yield) {
				return
			}
		}
	}
}

func readJSONLFile(path string, yield func(record.Raw, error) bool) bool {
	file, err := os.Open(path)
	if err != nil {
		yield(record.Raw{}, fmt.Errorf("open %s: %w", path, err))
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		raw, err := record.Decode(data)
		if err != nil {
			yield(record.Raw{}, fmt.Errorf("%s:%d: %w", path, line, err))
			return false
		}
		if !yield(raw, nil) {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		yield(record.Raw{}, fmt.Errorf("scan %s: %w", path, err))
		return false
	}
	return true
}

// CountLines returns the number of non-blank lines across paths, used to
// size import progress.
func CountLines(paths ...string) (int, error) {
	total := 0
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", path, err)
		}
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
		for scanner.Scan() {
			if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
				total++
			}
		}
		err = scanner.Err()
		_ = file.Close()
		if err != nil {
			return 0, fmt.Errorf("scan %s: %w", path, err)
		}
	}
	return total, nil
}
