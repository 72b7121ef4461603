// Command pwncheck checks passwords against the Pwned Passwords range API.
//
// Usage:
//
//	pwncheck check [--stdin]
//	pwncheck bulk FILE [--json]
//	pwncheck split [--stdin]
//	pwncheck status
//
// Exit status is 0 when nothing checked was breached, 1 when something was,
// and 2 on error.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
