// Command pikegrep searches a text file with a pre-compiled regex
// program, printing every line that contains a match.
//
// Usage:
//
//	pikegrep <regex_file> <text_file>
//
// The regex file holds bytecode in either the textual assembly or the
// packed binary format. Exits 1 on malformed arguments, unreadable
// files, or an invalid program.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/coregx/pikegrep"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <regex_file> <text_file>\n", os.Args[0])
		os.Exit(1)
	}

	re, err := pikegrep.LoadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing regex: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading text file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	start := time.Now()
	lines, err := pikegrep.GrepCollect(re, f)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning text file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d matches in %d us\n", len(lines), elapsed.Microseconds())
	for _, line := range lines {
		os.Stdout.Write(line)
		fmt.Println()
	}
}
