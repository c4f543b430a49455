package pikegrep

import (
	"bufio"
	"io"
)

// Grep line sizing: lines longer than maxLineBytes are reported as a
// scanner error rather than silently split.
const (
	initialLineBytes = 64 * 1024
	maxLineBytes     = 16 * 1024 * 1024
)

// Grep scans r line by line and writes every line containing a match to
// w, newline-terminated. It returns the number of matching lines.
func Grep(re *Regex, r io.Reader, w io.Writer) (int, error) {
	matched := 0
	err := grepLines(re, r, func(line []byte) error {
		matched++
		if _, err := w.Write(line); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	})
	return matched, err
}

// GrepCollect is Grep but accumulates the matching lines instead of
// writing them, for callers that report a summary before the lines.
func GrepCollect(re *Regex, r io.Reader) ([][]byte, error) {
	var lines [][]byte
	err := grepLines(re, r, func(line []byte) error {
		lines = append(lines, append([]byte(nil), line...))
		return nil
	})
	return lines, err
}

func grepLines(re *Regex, r io.Reader, hit func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialLineBytes), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if !re.Match(line) {
			continue
		}
		if err := hit(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
