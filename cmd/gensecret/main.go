package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

// Minimal length HS256 key still considered safe
const minBytesLen = 16

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	n := fs.IntP("bytes", "n", SecretKeyBytesLen, "Number of random bytes in the key")
	env := fs.Bool("env", false, "Print as SECRET_KEY=<key> line ready for .env file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < minBytesLen {
		return fmt.Errorf("key must be at least %d bytes, got %d", minBytesLen, *n)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	key := hex.EncodeToString(b)
	if *env {
		key = "SECRET_KEY=" + key
	}

	_, err := fmt.Fprintln(w, key)
	return err
}
