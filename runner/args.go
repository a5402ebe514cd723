package runner

import "strings"

// ForwardedArgs joins the trailing command line arguments with single spaces
// and splits the result on whitespace again. No shell is involved and nothing
// is escaped, so an argument containing a space reaches the target as two.
func ForwardedArgs(args []string) []string {
	return strings.Fields(strings.Join(args, " "))
}
