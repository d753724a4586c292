package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"photoboard/api/internal/security"
)

// Generates the argon2id hash for the auth.adminpasswordhash config value.
func main() {
	fmt.Fprint(os.Stderr, "password: ")

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	hash, err := security.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
