// Command explorer-cli runs the explorer pipeline on a local file and writes
// the results to a directory.
package main

func main() {
	Execute()
}
