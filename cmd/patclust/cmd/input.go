package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

const maxLineSize = 16 * 1024 * 1024

// readLines reads the trimmed lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}

// readInput reads the lines of path, or of stdin when path is "" or "-".
// It returns the name recorded as the run source.
func readInput(stdin io.Reader, path string) ([]string, string, error) {
	if path == "" || path == "-" {
		lines, err := readLines(stdin)
		if err != nil {
			return nil, "", apperrors.IOError("cannot read standard input", err)
		}
		return lines, "<stdin>", nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", apperrors.New(apperrors.ErrCodeFileNotFound,
				fmt.Sprintf("input file not found: %s", path), err)
		}
		return nil, "", apperrors.IOError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	lines, err := readLines(f)
	if err != nil {
		return nil, "", apperrors.IOError(fmt.Sprintf("cannot read %s", path), err)
	}
	return lines, path, nil
}

// writeFile writes data to path, wrapping failures in a coded error.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.New(apperrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot write %s", path), err)
	}
	return nil
}
