// Command materialctl imports, exports and seeds materials from the shell.
package main

func main() {
	Execute()
}
